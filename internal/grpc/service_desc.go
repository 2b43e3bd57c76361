package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "energy.v1.Dashboard"

// DashboardServer is the server API for the energy.v1.Dashboard service.
type DashboardServer interface {
	GetMonthlyBill(context.Context, *MonthlyBillRequest) (*MonthlyBillResponse, error)
	GetYearlyBill(context.Context, *YearlyBillRequest) (*YearlyBillResponse, error)
	GetUsage(context.Context, *UsageRequest) (*UsageResponse, error)
	GetQuickStats(context.Context, *QuickStatsRequest) (*QuickStatsResponse, error)
	RefreshPeriod(context.Context, *RefreshPeriodRequest) (*SummaryResponse, error)
	ListDevices(context.Context, *ListDevicesRequest) (*ListDevicesResponse, error)
	SetDeviceStatus(context.Context, *SetDeviceStatusRequest) (*DeviceResponse, error)
	AdjustSetpoint(context.Context, *AdjustSetpointRequest) (*DeviceResponse, error)
	GetDeviceUsage(context.Context, *TimePeriodRequest) (*DeviceUsageResponse, error)
	GetTotalUsage(context.Context, *TimePeriodRequest) (*TotalUsageResponse, error)
}

// unaryHandler adapts a typed DashboardServer method to a grpc.MethodDesc handler.
func unaryHandler[Req, Resp any](method string, call func(DashboardServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DashboardServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DashboardServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// DashboardServiceDesc describes energy.v1.Dashboard for grpc.Server.RegisterService.
var DashboardServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DashboardServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetMonthlyBill", Handler: unaryHandler("GetMonthlyBill", DashboardServer.GetMonthlyBill)},
		{MethodName: "GetYearlyBill", Handler: unaryHandler("GetYearlyBill", DashboardServer.GetYearlyBill)},
		{MethodName: "GetUsage", Handler: unaryHandler("GetUsage", DashboardServer.GetUsage)},
		{MethodName: "GetQuickStats", Handler: unaryHandler("GetQuickStats", DashboardServer.GetQuickStats)},
		{MethodName: "RefreshPeriod", Handler: unaryHandler("RefreshPeriod", DashboardServer.RefreshPeriod)},
		{MethodName: "ListDevices", Handler: unaryHandler("ListDevices", DashboardServer.ListDevices)},
		{MethodName: "SetDeviceStatus", Handler: unaryHandler("SetDeviceStatus", DashboardServer.SetDeviceStatus)},
		{MethodName: "AdjustSetpoint", Handler: unaryHandler("AdjustSetpoint", DashboardServer.AdjustSetpoint)},
		{MethodName: "GetDeviceUsage", Handler: unaryHandler("GetDeviceUsage", DashboardServer.GetDeviceUsage)},
		{MethodName: "GetTotalUsage", Handler: unaryHandler("GetTotalUsage", DashboardServer.GetTotalUsage)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "energy/v1/dashboard",
}

func RegisterDashboardServer(s grpc.ServiceRegistrar, srv DashboardServer) {
	s.RegisterService(&DashboardServiceDesc, srv)
}

// DashboardClient calls energy.v1.Dashboard using the JSON codec.
type DashboardClient struct {
	cc grpc.ClientConnInterface
}

func NewDashboardClient(cc grpc.ClientConnInterface) *DashboardClient {
	return &DashboardClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *DashboardClient, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DashboardClient) GetMonthlyBill(ctx context.Context, in *MonthlyBillRequest, opts ...grpc.CallOption) (*MonthlyBillResponse, error) {
	return invoke[MonthlyBillResponse](ctx, c, "GetMonthlyBill", in, opts...)
}

func (c *DashboardClient) GetYearlyBill(ctx context.Context, in *YearlyBillRequest, opts ...grpc.CallOption) (*YearlyBillResponse, error) {
	return invoke[YearlyBillResponse](ctx, c, "GetYearlyBill", in, opts...)
}

func (c *DashboardClient) GetUsage(ctx context.Context, in *UsageRequest, opts ...grpc.CallOption) (*UsageResponse, error) {
	return invoke[UsageResponse](ctx, c, "GetUsage", in, opts...)
}

func (c *DashboardClient) GetQuickStats(ctx context.Context, in *QuickStatsRequest, opts ...grpc.CallOption) (*QuickStatsResponse, error) {
	return invoke[QuickStatsResponse](ctx, c, "GetQuickStats", in, opts...)
}

func (c *DashboardClient) RefreshPeriod(ctx context.Context, in *RefreshPeriodRequest, opts ...grpc.CallOption) (*SummaryResponse, error) {
	return invoke[SummaryResponse](ctx, c, "RefreshPeriod", in, opts...)
}

func (c *DashboardClient) ListDevices(ctx context.Context, in *ListDevicesRequest, opts ...grpc.CallOption) (*ListDevicesResponse, error) {
	return invoke[ListDevicesResponse](ctx, c, "ListDevices", in, opts...)
}

func (c *DashboardClient) SetDeviceStatus(ctx context.Context, in *SetDeviceStatusRequest, opts ...grpc.CallOption) (*DeviceResponse, error) {
	return invoke[DeviceResponse](ctx, c, "SetDeviceStatus", in, opts...)
}

func (c *DashboardClient) AdjustSetpoint(ctx context.Context, in *AdjustSetpointRequest, opts ...grpc.CallOption) (*DeviceResponse, error) {
	return invoke[DeviceResponse](ctx, c, "AdjustSetpoint", in, opts...)
}

func (c *DashboardClient) GetDeviceUsage(ctx context.Context, in *TimePeriodRequest, opts ...grpc.CallOption) (*DeviceUsageResponse, error) {
	return invoke[DeviceUsageResponse](ctx, c, "GetDeviceUsage", in, opts...)
}

func (c *DashboardClient) GetTotalUsage(ctx context.Context, in *TimePeriodRequest, opts ...grpc.CallOption) (*TotalUsageResponse, error) {
	return invoke[TotalUsageResponse](ctx, c, "GetTotalUsage", in, opts...)
}

package admin

import (
	"net/http"

	"dutchthrift_server/handling"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs"

	"github.com/MonkyMars/gecho"
)

func (ar *AdminRoutesManager) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := handling.ParseOrderFilter(r)
	if err != nil {
		handling.HandleError(err, "Invalid order filter", ar.logger, w)
		return
	}

	orders, err := ar.orderService.ListOrders(r.Context(), filter)
	if err != nil {
		handling.HandleError(err, "Failed to fetch orders", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(orders),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	orderId, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid order id", ar.logger, w)
		return
	}

	order, err := ar.orderService.GetOrderDetail(r.Context(), orderId)
	if err != nil {
		handling.HandleError(err, "Failed to fetch order", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(order),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderId, err := handling.ParseUUIDParam(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid order id", ar.logger, w)
		return
	}

	body, err := lib.ExtractAndValidateBody[structs.OrderStatusUpdateRequest](r)
	if err != nil {
		handling.HandleError(asValidationError(err), "Invalid request body", ar.logger, w)
		return
	}

	order, err := ar.orderService.UpdateStatus(r.Context(), orderId, body)
	if err != nil {
		handling.HandleError(err, "Failed to update order status", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithMessage("Order status updated"),
		gecho.WithData(order),
		gecho.Send(),
	)
}

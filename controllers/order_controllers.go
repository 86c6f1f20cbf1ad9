package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marior032001/jwt-pizza-service/kds"
	"github.com/marior032001/jwt-pizza-service/middlewares"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/services"
	"github.com/marior032001/jwt-pizza-service/utils"
	"github.com/sirupsen/logrus"
)

// Fulfiller hands a stored order to the factory.
type Fulfiller interface {
	Fulfill(ctx context.Context, diner models.AuthUser, order models.Order) (*services.FactoryReceipt, error)
}

type OrderController struct {
	Orders  *services.OrderService
	Factory Fulfiller
	Hub     *kds.Hub
}

func NewOrderController(orders *services.OrderService, factory Fulfiller, hub *kds.Hub) *OrderController {
	return &OrderController{Orders: orders, Factory: factory, Hub: hub}
}

func (oc *OrderController) GetOrders(c *gin.Context) {
	diner, _ := middlewares.AuthUser(c)

	page, err := oc.Orders.GetOrders(c.Request.Context(), *diner, queryInt(c, "page", 1))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, page)
}

// CreateOrder stores the order, then sends it to the factory. A factory
// failure is reported but the stored order stays.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	diner, _ := middlewares.AuthUser(c)

	var req models.NewOrder
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondMessage(c, http.StatusBadRequest, "invalid order")
		return
	}

	order, err := oc.Orders.AddDinerOrder(c.Request.Context(), *diner, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if oc.Hub != nil {
		oc.Hub.BroadcastOrderCreated(*order)
	}

	receipt, err := oc.Factory.Fulfill(c.Request.Context(), *diner, *order)
	if err != nil {
		reportURL := ""
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			reportURL = appErr.ReportURL
		}
		utils.ErrorLogger.WithError(err).WithFields(logrus.Fields{
			"order_id": order.ID,
			"diner_id": diner.ID,
		}).Error("order fulfillment failed")

		utils.RespondJSON(c, http.StatusInternalServerError, gin.H{
			"message":              utils.PublicMessage(err),
			"followLinkToEndChaos": reportURL,
		})
		return
	}

	utils.RespondJSON(c, http.StatusOK, gin.H{
		"order":                order,
		"followLinkToEndChaos": receipt.ReportURL,
		"jwt":                  receipt.JWT,
	})
}

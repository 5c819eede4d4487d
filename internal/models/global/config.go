package global

import "storefront-bff/internal/models"

// Environment carries the per-deployment backend addresses.
type Environment struct {
	OrderServiceURL     string `env:"ORDER_SERVICE_URL,required"`
	InventoryServiceURL string `env:"INVENTORY_SERVICE_URL,required"`
	PaymentServiceURL   string `env:"PAYMENT_SERVICE_URL,required"`
	UserServiceURL      string `env:"USER_SERVICE_URL,required"`
	SettingsPath        string `env:"BFF_SETTINGS,default=./config/settings.yml"`
}

func (e *Environment) Addresses() map[models.ServiceName]string {
	return map[models.ServiceName]string{
		models.ServiceOrder:     e.OrderServiceURL,
		models.ServiceInventory: e.InventoryServiceURL,
		models.ServicePayment:   e.PaymentServiceURL,
		models.ServiceUser:      e.UserServiceURL,
	}
}

package services

import (
	"github.com/kendall-kelly/freelance-market-api/repositories"
	"gorm.io/gorm"
)

// Services bundles the domain services wired to one database
type Services struct {
	Catalog  *CatalogService
	Orders   *OrderService
	Payments *PaymentService
	Users    *UserService
	Messages *MessageService
}

// Options carries the collaborators that are not the database
type Options struct {
	Processor     PaymentProcessor
	Images        ImageService
	Hub           *Hub
	Currency      string
	WebhookSecret string
}

// New wires every domain service onto db
func New(db *gorm.DB, opts Options) *Services {
	serviceRepo := repositories.NewServiceRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	userRepo := repositories.NewUserRepository(db)

	orders := NewOrderService(orderRepo, serviceRepo)
	return &Services{
		Catalog:  NewCatalogService(serviceRepo, opts.Images),
		Orders:   orders,
		Payments: NewPaymentService(repositories.NewPaymentRepository(db), orders, opts.Processor, opts.Currency, opts.WebhookSecret),
		Users:    NewUserService(userRepo),
		Messages: NewMessageService(repositories.NewMessageRepository(db), userRepo, orderRepo, opts.Hub),
	}
}

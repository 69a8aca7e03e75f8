package services

import (
	"dutchthrift_server/database"
	"dutchthrift_server/structs"

	"github.com/MonkyMars/gecho"
)

type ServiceManager struct {
	AuthService     *AuthService
	EmailService    *EmailService
	CacheService    *CacheService
	HealthService   *HealthService
	CustomerService *CustomerService
	OrderService    *OrderService
	ItemService     *ItemService
	IntakeService   *IntakeService
	AnalysisService *AnalysisService
	PricingService  *PricingService
	Jobs            *Jobs
}

// NewServiceManager wires every service onto one storage backend. The
// analysis oracle is only enabled when an API key is configured.
func NewServiceManager(logger *gecho.Logger, cfg *structs.Config, store database.Storage) *ServiceManager {
	var analyzer Analyzer
	if cfg.Analysis.ApiKey != "" {
		analyzer = NewOpenAIAnalyzer(cfg.Analysis)
	}
	return NewServiceManagerWith(logger, cfg, store, analyzer)
}

// NewServiceManagerWith is NewServiceManager with an explicit analyzer, which
// may be nil.
func NewServiceManagerWith(logger *gecho.Logger, cfg *structs.Config, store database.Storage, analyzer Analyzer) *ServiceManager {
	cacheService := NewCacheService(logger, cfg.Cache)
	emailService := NewEmailService(logger, cfg)
	authService := NewAuthService(logger, cfg.Auth, store, cacheService, emailService)
	healthService := NewHealthService(logger, store, cacheService)
	customerService := NewCustomerService(logger, cfg.Auth.Argon)
	orderService := NewOrderService(logger, store)
	itemService := NewItemService(logger, store, cacheService)
	intakeService := NewIntakeService(logger, store, customerService, orderService, itemService, emailService)
	analysisService := NewAnalysisService(logger, store, analyzer, cacheService)
	pricingService := NewPricingService(logger, store, orderService, cacheService)

	return &ServiceManager{
		AuthService:     authService,
		EmailService:    emailService,
		CacheService:    cacheService,
		HealthService:   healthService,
		CustomerService: customerService,
		OrderService:    orderService,
		ItemService:     itemService,
		IntakeService:   intakeService,
		AnalysisService: analysisService,
		PricingService:  pricingService,
		Jobs:            NewJobs(logger, cfg.Jobs, orderService),
	}
}

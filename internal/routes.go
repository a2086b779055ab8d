package internal

import (
	"leadsync/internal/controllers"
	"leadsync/internal/providers"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/validate", http.HandlerFunc(apiController.Validate))
	routers.Get("/campaign-stats", http.HandlerFunc(apiController.CampaignStats))

	routers.Get("/leads", http.HandlerFunc(apiController.ListLeads))
	routers.Post("/leads/create", http.HandlerFunc(apiController.CreateLead))
	routers.Post("/leads/update", http.HandlerFunc(apiController.UpdateLead))
	routers.Post("/leads/delete", http.HandlerFunc(apiController.DeleteLead))

	routers.Get("/templates", http.HandlerFunc(apiController.ListTemplates))
	routers.Post("/templates/create", http.HandlerFunc(apiController.CreateTemplate))
	routers.Post("/templates/update", http.HandlerFunc(apiController.UpdateTemplate))

	routers.Get("/validation/reports", http.HandlerFunc(apiController.ListReports))
	return routers
}

package internal

import (
	"annolist/internal/controllers"
	"annolist/internal/providers"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/panel", http.HandlerFunc(apiController.GetPanel))
	routers.Get("/datasources", http.HandlerFunc(apiController.GetDatasources))
	routers.Post("/refresh", http.HandlerFunc(apiController.Refresh))
	routers.Post("/filter/tag", http.HandlerFunc(apiController.ToggleTag))
	routers.Post("/filter/pin", http.HandlerFunc(apiController.PinTag))
	routers.Post("/filter/user", http.HandlerFunc(apiController.ToggleUser))
	routers.Post("/navigate", http.HandlerFunc(apiController.Navigate))
	routers.Post("/panel/options", http.HandlerFunc(apiController.ConfigurePanel))
	return routers
}

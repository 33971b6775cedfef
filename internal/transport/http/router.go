package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/stores_api/internal/handlers"
	"github.com/Skotchmaster/stores_api/internal/middleware/auth"
	"github.com/Skotchmaster/stores_api/internal/token"
)

type Deps struct {
	DB            *gorm.DB
	Tokens        *token.Authority
	AuthHandler   *handlers.AuthHandler
	UserHandler   *handlers.UserHandler
	StoreHandler  *handlers.StoreHandler
	ItemHandler   *handlers.ItemHandler
	TagHandler    *handlers.TagHandler
	SearchHandler *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/refresh", d.AuthHandler.Refresh)

	// Any valid access token.
	authed := e.Group("", auth.Require(d.Tokens, false))
	authed.POST("/logout", d.AuthHandler.Logout)
	authed.GET("/user/:id", d.UserHandler.GetUser)
	authed.GET("/search", d.SearchHandler.Search)

	authed.GET("/store", d.StoreHandler.GetStores)
	authed.POST("/store", d.StoreHandler.CreateStore)
	authed.GET("/store/:id", d.StoreHandler.GetStore)
	authed.DELETE("/store/:id", d.StoreHandler.DeleteStore)

	authed.GET("/item", d.ItemHandler.GetItems)
	authed.GET("/item/:id", d.ItemHandler.GetItem)
	authed.PUT("/item/:id", d.ItemHandler.PutItem)
	authed.DELETE("/item/:id", d.ItemHandler.DeleteItem)

	authed.GET("/store/:store_id/tag", d.TagHandler.GetStoreTags)
	authed.POST("/store/:store_id/tag", d.TagHandler.CreateStoreTag)
	authed.GET("/tag/:id", d.TagHandler.GetTag)
	authed.DELETE("/tag/:id", d.TagHandler.DeleteTag)
	authed.POST("/item/:item_id/tag/:tag_id", d.TagHandler.LinkTag)
	authed.DELETE("/item/:item_id/tag/:tag_id", d.TagHandler.UnlinkTag)

	// Tokens obtained through /refresh are not fresh and cannot reach
	// these routes.
	fresh := e.Group("", auth.Require(d.Tokens, true))
	fresh.DELETE("/user/:id", d.UserHandler.DeleteUser)
	fresh.POST("/item", d.ItemHandler.CreateItem)
}

package controllers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	dashboard "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Dashboard"
	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageData is what every page template receives
type pageData struct {
	Page      dashboard.Page
	Title     string
	Equipment []mqtmodels.EquipmentKind
}

var pageTitles = map[dashboard.Page]string{
	dashboard.PageHome:    "Inicio",
	dashboard.PageAdmin:   "Administración de dispositivos",
	dashboard.PageControl: "Control de dispositivos",
	dashboard.PageMonitor: "Monitoreo",
}

// PageController renders the dashboard shells; live content arrives over /ws
type PageController struct {
	templates *template.Template
}

func NewPageController() (*PageController, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &PageController{templates: t}, nil
}

// RegisterRoutes registers the page routes with Gin
func (c *PageController) RegisterRoutes(router *gin.Engine) {
	router.GET("/", c.render(dashboard.PageHome))
	router.GET("/admin", c.render(dashboard.PageAdmin))
	router.GET("/control", c.render(dashboard.PageControl))
	router.GET("/monitor", c.render(dashboard.PageMonitor))
}

func (c *PageController) render(page dashboard.Page) gin.HandlerFunc {
	data := pageData{
		Page:      page,
		Title:     pageTitles[page],
		Equipment: mqtmodels.EquipmentKinds(),
	}
	return func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
		ctx.Header("Content-Type", "text/html; charset=utf-8")
		if err := c.templates.ExecuteTemplate(ctx.Writer, string(page)+".html", data); err != nil {
			_ = ctx.Error(err)
		}
	}
}

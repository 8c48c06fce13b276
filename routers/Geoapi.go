package routers

import (
	"github.com/GrainArc/EarthWork/views"
	"github.com/gin-gonic/gin"
)

func SurveyRouters(r *gin.Engine, uc *views.SurveyController) {
	surveyRouter := r.Group("/survey")
	{
		surveyRouter.POST("/ImportSurface", uc.ImportSurface)
		surveyRouter.POST("/ImportAlignment", uc.ImportAlignment)
		surveyRouter.POST("/UpdateProfile", uc.UpdateProfile)
		surveyRouter.POST("/AddSurfacePoints", uc.AddSurfacePoints)
		surveyRouter.POST("/DesignSurface", uc.DesignSurface)
		surveyRouter.GET("/Surfaces", uc.Surfaces)
		surveyRouter.GET("/Alignments", uc.Alignments)

		surveyRouter.POST("/Elevation", uc.Elevation)
		surveyRouter.POST("/CrossSection", uc.CrossSection)
		surveyRouter.POST("/MassHaul", uc.MassHaul)
		surveyRouter.POST("/MassHaulGeoJSON", uc.MassHaulGeoJSON)
		surveyRouter.POST("/MassHaulDXF", uc.MassHaulDXF)
		surveyRouter.POST("/SectionsDXF", uc.SectionsDXF)

		surveyRouter.GET("/Runs", uc.Runs)
		surveyRouter.GET("/Runs/:id", uc.Run)
		surveyRouter.GET("/Runs/:id/Report", uc.RunReport)
	}
}

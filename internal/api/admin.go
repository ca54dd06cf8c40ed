package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/linkbridge/linkbridge/internal/models"
	"github.com/linkbridge/linkbridge/internal/services"
)

const maxListLimit = 500

// LinkStatsResponse is the body of /api/v1/links/:token/stats.
type LinkStatsResponse struct {
	Token            string    `json:"token"`
	OriginalURL      string    `json:"originalUrl"`
	ExternalShortURL string    `json:"externalShortUrl"`
	Visits           int64     `json:"visits"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ListLinksHandler pages through stored links with ?limit and ?offset.
func ListLinksHandler(links *services.LinkService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := intQuery(c, "limit", 50)
		if err != nil || limit <= 0 || limit > maxListLimit {
			badRequest(c, "limit must be between 1 and 500")
			return
		}
		offset, err := intQuery(c, "offset", 0)
		if err != nil || offset < 0 {
			badRequest(c, "offset must be a non-negative integer")
			return
		}

		out, total, err := links.ListLinks(c.Request.Context(), limit, offset)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"links": out, "total": total, "limit": limit, "offset": offset})
	}
}

// GetLinkStatsHandler reports the visit count of one link.
func GetLinkStatsHandler(links *services.LinkService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := links.GetLinkStats(c.Request.Context(), c.Param("token"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, LinkStatsResponse{
			Token:            link.Token,
			OriginalURL:      link.OriginalURL,
			ExternalShortURL: link.ExternalShortURL,
			Visits:           link.Visits,
			CreatedAt:        link.CreatedAt,
		})
	}
}

// providerView never contains the credential itself.
type providerView struct {
	Name      string    `json:"name"`
	APIURL    string    `json:"apiUrl"`
	TokenHint string    `json:"tokenHint"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewOf(p models.Provider) providerView {
	return providerView{Name: p.Name, APIURL: p.APIURL, TokenHint: p.TokenHint(), CreatedAt: p.CreatedAt}
}

// ListProvidersHandler lists registered providers without their keys.
func ListProvidersHandler(providers *services.ProviderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := providers.List(c.Request.Context())
		if err != nil {
			writeError(c, logger, err)
			return
		}
		out := make([]providerView, 0, len(list))
		for _, p := range list {
			out = append(out, viewOf(p))
		}
		c.JSON(http.StatusOK, gin.H{"providers": out})
	}
}

type createProviderRequest struct {
	Name     string `json:"name" binding:"required"`
	APIURL   string `json:"apiUrl" binding:"required"`
	APIToken string `json:"apiToken" binding:"required"`
}

// CreateProviderHandler registers a provider. A taken name answers 409.
func CreateProviderHandler(providers *services.ProviderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createProviderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "name, apiUrl and apiToken are required")
			return
		}
		p, err := providers.Register(c.Request.Context(), req.Name, req.APIURL, req.APIToken)
		if errors.Is(err, services.ErrProviderExists) {
			c.JSON(http.StatusConflict, errorResponse{Status: "error", Message: err.Error()})
			return
		}
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, viewOf(*p))
	}
}

// DeleteProviderHandler removes a provider and answers 204.
func DeleteProviderHandler(providers *services.ProviderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := providers.Remove(c.Request.Context(), c.Param("name")); err != nil {
			writeError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ProbeProviderHandler makes one uncorrected call to a provider and reports
// the raw outcome, for debugging provider configuration.
func ProbeProviderHandler(bridge *services.BridgeService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := bindBridgeRequest(c, logger)
		report, err := bridge.Probe(c.Request.Context(), req)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

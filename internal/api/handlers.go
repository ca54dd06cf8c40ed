package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/linkbridge/linkbridge/internal/services"
)

// HealthCheckHandler handles the /health route.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

// bridgeBody is the JSON body accepted by /api/bridge. Each input has two
// accepted spellings.
type bridgeBody struct {
	Provider     string `json:"provider"`
	APIURL       string `json:"apiUrl"`
	Key          string `json:"key"`
	APIToken     string `json:"apiToken"`
	URL          string `json:"url"`
	Destination  string `json:"destination"`
	ProviderName string `json:"providerName"`
	Name         string `json:"name"`
}

// BridgeResponse is the success body of /api/bridge.
type BridgeResponse struct {
	Status   string `json:"status"`
	Original string `json:"original"`
	External string `json:"external"`
	Link     string `json:"link"`
}

// BridgeHandler shortens a destination through a provider and answers with
// a local /start link. Inputs are read from the query string first, then from
// a JSON body.
func BridgeHandler(bridge *services.BridgeService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := bindBridgeRequest(c, logger)

		link, err := bridge.Bridge(c.Request.Context(), req)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, BridgeResponse{
			Status:   "success",
			Original: link.OriginalURL,
			External: link.ExternalShortURL,
			Link:     startLink(c, link.Token),
		})
	}
}

// bindBridgeRequest merges query and body inputs. A body that is not JSON is
// treated as empty so query parameters alone still work; missing inputs are
// reported later as MissingParameter.
func bindBridgeRequest(c *gin.Context, logger *zap.Logger) services.BridgeRequest {
	var body bridgeBody
	if c.Request.Method == http.MethodPost && c.Request.Body != nil {
		if err := c.ShouldBindJSON(&body); err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debug("ignoring unparsable bridge body",
					zap.String("content_type", c.ContentType()), zap.Error(err))
			}
			body = bridgeBody{}
		}
	}
	return services.BridgeRequest{
		ProviderURL:  firstNonEmpty(c.Query("provider"), c.Query("apiUrl"), body.Provider, body.APIURL),
		Key:          firstNonEmpty(c.Query("key"), c.Query("apiToken"), body.Key, body.APIToken),
		Destination:  firstNonEmpty(c.Query("url"), c.Query("destination"), body.URL, body.Destination),
		ProviderName: firstNonEmpty(c.Query("providerName"), c.Query("name"), body.ProviderName, body.Name),
	}
}

// startLink builds {scheme}://{host}/start/{token} from the inbound request.
func startLink(c *gin.Context, token string) string {
	scheme := "http"
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	} else if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/start/" + token
}

// RedirectHandler sends the caller to the provider short URL behind a token.
func RedirectHandler(redirects *services.RedirectService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := redirects.Resolve(c.Request.Context(), c.Param("token"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.Redirect(http.StatusFound, target)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"

	"cardlink-engine/pkg/errutil"
	"cardlink-engine/pkg/health"
	"cardlink-engine/pkg/middleware"
	"cardlink-engine/services/authorization"
	"cardlink-engine/services/deal"
	"cardlink-engine/services/partner"
)

var Module = fx.Module("httpapi",
	fx.Provide(ProvideRouter),
)

type RouterParams struct {
	fx.In

	Executors *partner.Executors
	Deals     *deal.Service
	Health    health.HealthService
}

// ProvideRouter builds the partner-facing HTTP surface. Routing is a thin
// shim; all authorization semantics live in the executor pipeline.
func ProvideRouter(p RouterParams) http.Handler {
	registerValidations()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Error())

	r.GET("/healthz", p.Health.Liveness)
	r.GET("/readyz", p.Health.Readiness)

	r.POST("/partners/:partner/authorizations", handleAuthorize(p.Executors))

	r.POST("/deals/claims", handleClaimDeal(p.Deals))
	r.POST("/deals/batches/:partner", handleSnapshotBatch(p.Deals))
	r.GET("/deals/batches", handleListBatches(p.Deals))
	r.GET("/deals/batches/:batch_id", handleGetBatch(p.Deals))

	return r
}

func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// arn: 23-digit acquirer reference number.
	_ = v.RegisterValidation("arn", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != 23 {
			return false
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})
}

func handleAuthorize(executors *partner.Executors) gin.HandlerFunc {
	return func(c *gin.Context) {
		tag := authorization.Partner(c.Param("partner"))
		exec, ok := executors.For(tag)
		if !ok {
			_ = c.Error(errutil.NotFound("unknown partner", nil))
			return
		}

		request := partner.NewRequest(tag)
		if err := c.ShouldBindJSON(request); err != nil {
			adapter, adapterErr := partner.ForPartner(tag)
			if adapterErr != nil {
				_ = c.Error(adapterErr)
				return
			}
			ex := &authorization.Exchange{
				Partner:       tag,
				Authorization: &authorization.Authorization{},
				Result:        authorization.ResultValidationFailed,
			}
			c.JSON(http.StatusBadRequest, adapter.BuildAuthorizationResponse(ex))
			return
		}

		response, err := exec.Execute(c.Request.Context(), request)
		c.JSON(statusFor(err), response)
	}
}

// statusFor maps pipeline errors onto HTTP codes. The partner-native body is
// returned either way so partners always get a well-formed reply.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var base errutil.BaseError
	if errors.As(err, &base) {
		return base.Code.HTTPStatus()
	}
	return http.StatusInternalServerError
}

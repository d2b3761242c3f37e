package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("health", fx.Provide(ProvideHealth))

type Dependency struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Health struct {
	Status string       `json:"status"`
	Deps   []Dependency `json:"deps,omitempty"`
}

// HealthService exposes liveness and readiness probes. Readiness checks the
// storage dependencies the authorization pipeline writes through.
type HealthService interface {
	Liveness(c *gin.Context)
	Readiness(c *gin.Context)
}

type health struct {
	db    *gorm.DB
	redis *redis.Client
}

type HealthParams struct {
	fx.In
	DB    *gorm.DB      `optional:"true"`
	Redis *redis.Client `optional:"true"`
}

func ProvideHealth(p HealthParams) HealthService {
	return &health{db: p.DB, redis: p.Redis}
}

func (h *health) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, &Health{Status: "ok"})
}

func (h *health) Readiness(c *gin.Context) {
	status := http.StatusOK
	this := &Health{Status: "ok"}

	if h.db != nil {
		dep := Dependency{Name: h.db.Name(), Status: "ok"}
		sql, err := h.db.DB()
		if err == nil {
			err = sql.Ping()
		}
		if err != nil {
			dep.Status = "unavailable"
			dep.Message = err.Error()
			this.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		this.Deps = append(this.Deps, dep)
	}

	if h.redis != nil {
		dep := Dependency{Name: "redis", Status: "ok"}
		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			dep.Status = "unavailable"
			dep.Message = err.Error()
			this.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		this.Deps = append(this.Deps, dep)
	}

	c.JSON(status, this)
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/serialpress/novels_backend/config"
	"github.com/serialpress/novels_backend/models"
	"github.com/serialpress/novels_backend/models/reports"
	"github.com/serialpress/novels_backend/utils"
	"github.com/serialpress/novels_backend/workflow"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("novels-settlement")

func correlationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.GetHeader("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Correlation-Id", correlationId)
		c.Next()
	}
}

// withBatchLock wraps a batch trigger in a best-effort Redis mutex so a
// scheduler double-fire does not run the same stage twice concurrently.
// Reliability never depends on Redis: the DB idempotency keys and uniqueness
// constraints make overlapping runs safe anyway.
func withBatchLock(name string, handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		locker := config.GetRedisLock()
		if locker != nil {
			lock, err := locker.Obtain(c.Request.Context(), "batch:"+name, 5*time.Minute, nil)
			if err == nil {
				defer lock.Release(c.Request.Context())
			} else if err != redislock.ErrNotObtained {
				config.LogError(config.GetLogger(), "server.go", "withBatchLock", "Obtain", name, err)
			}
		}
		handler(c)
	}
}

func periodFromQuery(c *gin.Context) (models.SettlementPeriod, bool) {
	raw := c.Query("period")
	if raw == "" {
		// default to the previous calendar month, the usual settlement target
		raw = models.PeriodOf(time.Now().UTC().AddDate(0, -1, 0)).String()
	}
	period, err := models.ParsePeriod(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return period, true
}

type accessRequest struct {
	ReaderId int                `json:"reader_id" binding:"required"`
	PayWith  models.BalanceKind `json:"pay_with"`
}

type skipWaitRequest struct {
	ReaderId int                 `json:"reader_id" binding:"required"`
	Method   models.UnlockMethod `json:"method" binding:"required"`
}

type confirmPayoutRequest struct {
	Status models.PayoutStatus `json:"status" binding:"required"`
}

func registerRoutes(r *gin.Engine) {
	logger := config.GetLogger()
	policy := workflow.DefaultAccessPolicy()
	workerId := "ops-" + uuid.NewString()[:8]

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if config.GetDB() == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database not connected"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// reader-facing unlock surface
	r.POST("/chapters/:id/access", func(c *gin.Context) {
		chapterId, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input accessRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := utils.SetReaderIdInContext(c.Request.Context(), input.ReaderId)
		ctx, span := tracer.Start(ctx, "RequestAccess")
		defer span.End()
		grant, fresh, err := workflow.RequestAccess(ctx, config.GetDB(), logger, policy, input.ReaderId, chapterId, input.PayWith)
		if err != nil {
			if errors.Is(err, models.ErrInsufficientBalance) {
				c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"grant": grant, "newlyRead": fresh})
	})

	r.POST("/chapters/:id/resolve", func(c *gin.Context) {
		chapterId, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input accessRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		grant, err := workflow.ResolvePending(c.Request.Context(), config.GetDB(), logger, input.ReaderId, chapterId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, grant)
	})

	r.POST("/chapters/:id/skip-wait", func(c *gin.Context) {
		chapterId, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input skipWaitRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		grant, err := workflow.CancelPending(c.Request.Context(), config.GetDB(), logger, input.ReaderId, chapterId, input.Method)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInsufficientBalance):
				c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
			case errors.Is(err, workflow.ErrGrantNotPending), errors.Is(err, workflow.ErrInvalidMethod):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(http.StatusOK, grant)
	})

	// batch entry points, safe to invoke repeatedly by a scheduler
	r.POST("/batch/timed-sweep", withBatchLock("timed-sweep", func(c *gin.Context) {
		resolved, err := workflow.SweepDueTimedGrants(c.Request.Context(), config.GetDB(), logger, time.Now().UTC())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"resolved": resolved})
	}))

	r.POST("/batch/spending-events", withBatchLock("spending-events", func(c *gin.Context) {
		unlocks, err := workflow.GenerateUnlockSpendingEvents(c.Request.Context(), config.GetDB(), logger, workerId, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "unlock_events": unlocks})
			return
		}
		subscriptions, err := workflow.GenerateSubscriptionSpendingEvents(c.Request.Context(), config.GetDB(), logger, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "unlock_events": unlocks, "subscription_events": subscriptions})
			return
		}
		c.JSON(http.StatusOK, gin.H{"unlock_events": unlocks, "subscription_events": subscriptions})
	}))

	r.POST("/batch/royalties", withBatchLock("royalties", func(c *gin.Context) {
		counts, err := workflow.ResolveRoyalties(c.Request.Context(), config.GetDB(), logger, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "royalties": counts})
			return
		}
		c.JSON(http.StatusOK, gin.H{"royalties": counts})
	}))

	r.POST("/batch/payouts", withBatchLock("payouts", func(c *gin.Context) {
		period, ok := periodFromQuery(c)
		if !ok {
			return
		}
		counts, err := workflow.AggregatePayouts(c.Request.Context(), config.GetDB(), logger, period)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "payouts": counts})
			return
		}
		c.JSON(http.StatusOK, gin.H{"payouts": counts, "period": period})
	}))

	r.POST("/batch/settlement-run", withBatchLock("settlement-run", func(c *gin.Context) {
		period, ok := periodFromQuery(c)
		if !ok {
			return
		}
		runKey := c.GetHeader("X-Idempotency-Key")
		result, skipped, err := workflow.RunSettlementOnce(c.Request.Context(), config.GetDB(), logger, workerId, period, runKey)
		if err != nil {
			if errors.Is(err, workflow.ErrIdempotencyInProgress) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": result})
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result, "period": period, "skipped": skipped})
	}))

	// external payment confirmation, the only way a payout leaves Pending
	r.POST("/payouts/:id/confirm", func(c *gin.Context) {
		payoutId, ok := intParam(c, "id")
		if !ok {
			return
		}
		var input confirmPayoutRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		payout, err := workflow.ConfirmPayout(c.Request.Context(), config.GetDB(), logger, payoutId, input.Status)
		if err != nil {
			switch {
			case errors.Is(err, workflow.ErrPayoutNotPending), errors.Is(err, workflow.ErrInvalidPayoutStatus):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(http.StatusOK, payout)
	})

	r.GET("/reports/payout-register", func(c *gin.Context) {
		period, ok := periodFromQuery(c)
		if !ok {
			return
		}
		reports.ExportPayoutRegister(c.Writer, c.Request, period)
	})
}

func intParam(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil || value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return value, true
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	r := gin.Default()
	r.Use(cors.Default())
	r.Use(correlationMiddleware())
	registerRoutes(r)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Start listening first; DB and Redis connect in the background so the
	// container becomes routable quickly.
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	go func() {
		config.ConnectDatabaseWithRetry()
		models.MigrateTable()
	}()
	go config.ConnectRedisWithRetry()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

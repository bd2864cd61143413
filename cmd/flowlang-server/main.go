package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hall-dev/flowlang/pkg/bindings"
	"github.com/hall-dev/flowlang/pkg/common/config"
	"github.com/hall-dev/flowlang/pkg/common/metrics"
)

var (
	cfgFile string
	logger  *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flowlang-server",
	Short: "flowlang HTTP service",
	Long: `flowlang-server exposes the pipeline data-flow interpreter over
HTTP: POST /v1/compile validates a program, POST /v1/run executes one
against a fixtures payload, and GET /metrics exports Prometheus metrics.`,
	RunE: run,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/flowlang/flowlang-server.yaml)")
}

func initConfig() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
}

type compileRequest struct {
	Program string `json:"program" binding:"required"`
}

type compileResponse struct {
	OK          bool   `json:"ok"`
	Diagnostics string `json:"diagnostics"`
}

type runRequest struct {
	Program  string `json:"program" binding:"required"`
	Fixtures string `json:"fixtures" binding:"required"`
}

type runResponse struct {
	Tables  map[string]interface{} `json:"tables"`
	Logs    map[string][]string    `json:"logs"`
	Explain string                 `json:"explain"`
}

func unmarshalInto(src string, dst interface{}) error {
	return json.Unmarshal([]byte(src), dst)
}

func run(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	cfg, err := config.LoadServerConfig(cfgFile)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	router := newRouter(logger)

	addr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.Port)
	logger.Info("flowlang-server starting", zap.String("addr", addr))
	return router.Run(addr)
}

// newRouter builds the gin engine with every route and middleware wired.
// Split out from run() so tests can exercise handlers without binding a
// socket.
func newRouter(base *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	collector := metrics.NewMetricsCollector("flowlang_server")
	router.Use(metrics.HTTPMetricsMiddleware(collector))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(base))

	router.GET("/healthz", handleHealthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	v1 := router.Group("/v1")
	{
		v1.POST("/compile", handleCompile)
		v1.POST("/run", handleRun)
	}
	return router
}

func handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleCompile(c *gin.Context) {
	var req compileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok, diagnostics := bindings.Compile(req.Program)
	c.JSON(http.StatusOK, compileResponse{OK: ok, Diagnostics: diagnostics})
}

func handleRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tablesJSON, logsJSON, explain := bindings.Run(req.Program, req.Fixtures)

	resp := runResponse{Explain: explain}
	if err := unmarshalInto(tablesJSON, &resp.Tables); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := unmarshalInto(logsJSON, &resp.Logs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func loggingMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		base.Debug("handled request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
		)
	}
}

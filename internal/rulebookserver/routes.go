// Package rulebookserver exposes an operator rulebook over HTTP and
// websocket, mirroring the shape of a small administrative service: public
// read-only endpoints, bearer-token-and-rate-limit-gated mutation endpoints,
// and a broadcast stream of rule-change events.
package rulebookserver

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rawblock/moment-algebra/internal/rewrite"
	"github.com/rawblock/moment-algebra/pkg/models"
)

// SnapshotSaver persists a rulebook snapshot and returns its assigned id
// together with its content fingerprint. rulebookstore.Store satisfies this;
// it is an interface here so the server package does not need to import the
// storage backend directly.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, rb *rewrite.Rulebook) (int64, string, error)
}

// Handler holds the rulebook and hub a router dispatches against.
type Handler struct {
	rulebook *rewrite.Rulebook
	hub      *Hub
	saver    SnapshotSaver
}

// SetupRouter builds the gin engine exposing rb over HTTP, broadcasting
// every successful mutation through hub. saver may be nil, in which case
// /api/v1/snapshot reports it is unavailable.
func SetupRouter(rb *rewrite.Rulebook, hub *Hub, saver SnapshotSaver) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("RULEBOOK_ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	h := &Handler{rulebook: rb, hub: hub, saver: saver}

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", h.handleHealth)
		pub.GET("/stream", hub.Subscribe)
		pub.GET("/rules", h.handleListRules)
		pub.GET("/reduce", h.handleReduce)
	}

	mut := r.Group("/api/v1")
	mut.Use(AuthMiddleware())
	mut.Use(NewRateLimiter(30, 5).Middleware())
	{
		mut.POST("/rules", h.handleAddRule)
		mut.POST("/complete", h.handleComplete)
		mut.POST("/reduce-ruleset", h.handleReduceRuleset)
		mut.POST("/snapshot", h.handleSnapshot)
	}

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"rules":  h.rulebook.Len(),
	})
}

func (h *Handler) handleListRules(c *gin.Context) {
	rules := h.rulebook.Rules()
	out := make([]gin.H, len(rules))
	for i, r := range rules {
		out[i] = ruleJSON(r)
	}
	c.JSON(http.StatusOK, gin.H{"rules": out, "count": len(out)})
}

func ruleJSON(r rewrite.Rule) gin.H {
	return gin.H{
		"lhs":         r.LHS.Raw,
		"rhs":         r.RHS.Raw,
		"rhsSign":     r.RHS.Sign.String(),
		"impliesZero": r.ImpliesZero(),
		"trivial":     r.Trivial(),
	}
}

type sequenceRequest struct {
	Raw  []int  `json:"raw" binding:"required"`
	Sign string `json:"sign"`
}

func parseSign(s string) models.SignTag {
	switch s {
	case "+i":
		return models.SignPlusI
	case "-1":
		return models.SignMinusOne
	case "-i":
		return models.SignMinusI
	default:
		return models.SignPlusOne
	}
}

func (h *Handler) handleAddRule(c *gin.Context) {
	var req struct {
		LHS sequenceRequest `json:"lhs" binding:"required"`
		RHS sequenceRequest `json:"rhs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	hasher := h.rulebook.Hasher()
	lhs := rewrite.New(hasher, req.LHS.Raw, parseSign(req.LHS.Sign))
	var rhs rewrite.HashedSequence
	if len(req.RHS.Raw) == 0 && req.RHS.Sign == "" {
		rhs = rewrite.Zero()
	} else {
		rhs = rewrite.New(hasher, req.RHS.Raw, parseSign(req.RHS.Sign))
	}

	rule, err := rewrite.NewRule(lhs, rhs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.rulebook.AddRule(rule)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.hub.Broadcast([]byte(`{"type":"rule_added","count":` + strconv.Itoa(n) + `}`))
	c.JSON(http.StatusOK, gin.H{"inserted": n, "totalRules": h.rulebook.Len()})
}

func (h *Handler) handleReduce(c *gin.Context) {
	rawParam := c.Query("raw")
	if rawParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing raw query parameter"})
		return
	}
	raw, err := parseCSVInts(rawParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "raw must be a comma-separated list of operator ids"})
		return
	}
	seq := rewrite.New(h.rulebook.Hasher(), raw, models.SignPlusOne)
	reduced := h.rulebook.Reduce(seq)
	c.JSON(http.StatusOK, gin.H{
		"zero": reduced.Zero,
		"raw":  reduced.Raw,
		"sign": reduced.Sign.String(),
	})
}

func parseCSVInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (h *Handler) handleComplete(c *gin.Context) {
	var req struct {
		MaxIterations int `json:"maxIterations"`
		TimeoutMS     int `json:"timeoutMs"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.MaxIterations <= 0 {
		req.MaxIterations = 1000
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if req.TimeoutMS > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	complete, err := h.rulebook.Complete(ctx, req.MaxIterations, nil)
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error(), "complete": false})
		return
	}
	h.hub.Broadcast([]byte(`{"type":"completion_finished"}`))
	c.JSON(http.StatusOK, gin.H{"complete": complete, "totalRules": h.rulebook.Len()})
}

func (h *Handler) handleReduceRuleset(c *gin.Context) {
	h.rulebook.ReduceRuleset()
	c.JSON(http.StatusOK, gin.H{"totalRules": h.rulebook.Len()})
}

func (h *Handler) handleSnapshot(c *gin.Context) {
	if h.saver == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot persistence not configured"})
		return
	}
	id, fp, err := h.saver.SaveSnapshot(c.Request.Context(), h.rulebook)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshotId": id, "fingerprint": fp})
}

package http

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vkj/geofix-api/internal/application/dto"
	"github.com/vkj/geofix-api/pkg/logger"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter un token bucket por IP de cliente. Las entradas inactivas se descartan al crecer el mapa.
type ipLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	clients map[string]*clientLimiter
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{rps: rate.Limit(rps), burst: burst, clients: make(map[string]*clientLimiter)}
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cl, ok := l.clients[ip]
	if !ok {
		if len(l.clients) >= 1024 {
			l.evict(now)
		}
		cl = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (l *ipLimiter) evict(now time.Time) {
	for ip, cl := range l.clients {
		if now.Sub(cl.lastSeen) > limiterIdleTTL {
			delete(l.clients, ip)
		}
	}
}

// RateLimitMiddleware limita por IP los endpoints de credenciales (login y OTP).
func RateLimitMiddleware(rps float64, burst int, log *logger.Logger) fiber.Handler {
	l := newIPLimiter(rps, burst)
	return func(c *fiber.Ctx) error {
		if !l.allow(c.IP(), time.Now()) {
			log.Warn().Str("ip", c.IP()).Str("path", c.Path()).Msg("too many requests")
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "TOO_MANY_REQUESTS", Message: "demasiadas solicitudes, intente más tarde"})
		}
		return c.Next()
	}
}

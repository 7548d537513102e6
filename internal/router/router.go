package router

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"complaintdesk/internal/auth"
	apperrors "complaintdesk/internal/errors"
	"complaintdesk/internal/handler"
	"complaintdesk/internal/model"
)

// Register wires routes and middleware. Request bodies above bodyLimit
// (echo size notation, e.g. "64M") are refused with 413 before any handler
// buffers them; an empty bodyLimit disables the cap.
func Register(
	e *echo.Echo,
	logger *zap.Logger,
	bodyLimit string,
	jwtService *auth.JWTService,
	revocations auth.RevocationList,
	authHandler *handler.AuthHandler,
	complaintHandler *handler.ComplaintHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	if bodyLimit != "" {
		e.Use(middleware.BodyLimit(bodyLimit))
	}

	e.Validator = NewCustomValidator()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/login", authHandler.Login)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  jwtService.Secret(),
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return jwtService.NewClaims()
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: "missing or invalid access token",
				Code:  "UNAUTHENTICATED",
			})
		},
	}), identity(revocations, logger))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/me", authHandler.Me)

	// Complaint routes
	secured.GET("/complaints", complaintHandler.List)
	secured.POST("/complaints", complaintHandler.Submit)
	secured.GET("/complaints/:id", complaintHandler.Get)
	secured.POST("/complaints/:id/resolve", complaintHandler.Resolve)
	secured.PATCH("/complaints/:id/status", complaintHandler.UpdateStatus)
	secured.GET("/complaints/:id/media/:index", complaintHandler.Media)

	// Dashboard routes
	secured.GET("/stats", complaintHandler.Stats)
	secured.GET("/notifications", complaintHandler.Notifications)
	secured.POST("/notifications/read", complaintHandler.MarkNotificationsRead)
}

// identity rejects revoked tokens and exposes the token's user to services
// through the request context.
func identity(revocations auth.RevocationList, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := handler.ClaimsFromContext(c)
			if !ok {
				return unauthorized("invalid token")
			}

			ctx := c.Request().Context()
			revoked, err := revocations.IsRevoked(ctx, claims.ID)
			if err != nil {
				logger.Warn("revocation lookup failed", zap.String("token_id", claims.ID), zap.Error(err))
			}
			if revoked {
				return unauthorized("token has been revoked")
			}

			c.SetRequest(c.Request().WithContext(auth.WithUser(ctx, claims.User())))
			return next(c)
		}
	}
}

func unauthorized(msg string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: msg,
		Code:  "UNAUTHENTICATED",
	})
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			if v.Status >= http.StatusInternalServerError {
				logger.Error("request", fields...)
			} else {
				logger.Info("request", fields...)
			}
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewCustomValidator returns a validator that knows the complaint enumerations.
func NewCustomValidator() *CustomValidator {
	return &CustomValidator{validator: model.NewValidator()}
}

// Validate implements echo.Validator interface. Field failures come back as
// *errors.ValidationError so handlers can map them like domain errors.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &apperrors.ValidationError{Fields: fields}
}

package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"tixmart/src/db"
	"tixmart/src/models"
	"tixmart/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	Token string
}

var dbi *gorm.DB

var testJwtKey = []byte("secret")

const cronSecret = "cron-secret"

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}))
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

func authMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	reqToken := strings.Split(bearerToken, " ")[1]
	if reqToken == "" {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return testJwtKey, nil
	})
	if err != nil || !tkn.Valid {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	uid, err := strconv.Atoi(claims.Subject)
	if err != nil {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	var user models.User
	if err := dbi.
		Model(&models.User{}).
		Where(&models.User{ID: uint(uid)}).
		First(&user).
		Error; err != nil {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	ctx.Set("id", user.ID)
	ctx.Set("email", user.Email)
	ctx.Set("role", user.Role)
}

func generateJWT(email string, userId uint) (string, error) {
	claims := &types.Claims{
		Username: email,
		Role:     "buyer",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(userId)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(testJwtKey)
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("paymentprovider", paymentProviderValidatorFunc)
	}

	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = mock
	dbi = d

	initServices()

	token, err := generateJWT("someone@example.com", 1)
	if err != nil {
		log.Fatalf("Error generating JWT token: %s\n", err.Error())
	}
	s.Token = token
}

func (s *TestSuite) expectUserLookup() {
	s.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role"}).
			AddRow(1, "Test User", "someone@example.com", "buyer"))
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	s.T().Setenv("MAINTENANCE_MODE", "true")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestCronRoutes() {
	s.T().Setenv("CRON_SECRET", cronSecret)

	router := setupRouter()
	cronRoutes(router)

	s.Run("Should reject a missing bearer token", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/cron/cleanup-reservations", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should reject a wrong bearer token", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/cron/cleanup-reservations", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should run a sweep and return the summary", func() {
		s.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","order_id" FROM "reservations"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_id"}))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/cron/cleanup-reservations", nil)
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", cronSecret))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		sjson := string(rbytes)
		assert.Equal(s.T(), int64(0), gjson.Get(sjson, "data.expired").Int())
		assert.Equal(s.T(), int64(0), gjson.Get(sjson, "data.failed").Int())
		assert.True(s.T(), gjson.Get(sjson, "data.timestamp").Exists())
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})
}

func (s *TestSuite) TestWebhookRoutes() {
	router := setupRouter()
	webhookRoutes(router)

	s.Run("Should reject an unsigned Stripe payload", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/webhook/stripe", strings.NewReader(`{}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=bad")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject an unsigned PayMongo payload", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/webhook/paymongo", strings.NewReader(`{}`))
		req.Header.Set("Paymongo-Signature", "t=1,te=bad,li=")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestReservations() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(authMiddleware)
	reservationHandlers(apiv1)

	s.Run("Should reject a request without a token", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/reservations", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should reject an unsupported payment provider", func() {
		s.expectUserLookup()

		w := httptest.NewRecorder()
		body := `{"provider": "cash", "items": [{"ticket_type": 10, "qty": 1}]}`
		req, _ := http.NewRequest("POST", "/api/v1/reservations", strings.NewReader(body))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.NotEmpty(s.T(), gjson.Get(string(rbytes), "error").String())
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})

	s.Run("Should list reservations for the caller", func() {
		s.expectUserLookup()
		s.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reservations"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_type_id", "order_id", "user_id", "qty", "status"}))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/reservations", nil)
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.Equal(s.T(), int64(0), gjson.Get(string(rbytes), "count").Int())
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})
}

func (s *TestSuite) TestOrders() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(authMiddleware)
	orderHandlers(apiv1)

	s.Run("Should return list of Order with 200 status", func() {
		s.expectUserLookup()
		s.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status", "amount", "currency", "provider", "request_id"}))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/orders", nil)
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.Equal(s.T(), int64(0), gjson.Get(string(rbytes), "count").Int())
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})

	s.Run("Should return 404 for an order owned by someone else", func() {
		s.expectUserLookup()
		s.Mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
			WillReturnError(gorm.ErrRecordNotFound)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/orders/42", nil)
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 404, w.Code)
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}

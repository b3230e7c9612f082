package chatControllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tienchung1704/real-dinhanstore/assistant"
	"github.com/tienchung1704/real-dinhanstore/config"
	"github.com/tienchung1704/real-dinhanstore/database"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"github.com/tienchung1704/real-dinhanstore/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logx.Init(logx.LoggerOpts{Environment: config.Testing})
	os.Exit(m.Run())
}

type fakeBot struct {
	system  string
	history []assistant.Message
	err     error
}

func (f *fakeBot) Reply(_ context.Context, system string, history []assistant.Message) (string, error) {
	f.system, f.history = system, history
	if f.err != nil {
		return "", f.err
	}
	return "Xin chao!", nil
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChat(t *testing.T) {
	db, err := database.OpenTest(t.Name())
	if err != nil {
		t.Fatal(err)
	}
	db.Create(&models.Product{Name: "Yonex Astrox 99", Slug: "astrox-99", Brand: "Yonex", Price: decimal.NewFromInt(4200000), Stock: 3, IsActive: true, IsFeatured: true})
	shop, err := config.LoadShop("")
	if err != nil {
		t.Fatal(err)
	}

	bot := &fakeBot{}
	r := gin.New()
	r.POST("/chat", Chat(db, shop, bot))

	w := post(r, `{"message":" which racket? ","history":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Xin chao!") {
		t.Fatalf("chat: %d %s", w.Code, w.Body)
	}
	if len(bot.history) != 3 || bot.history[2].Content != "which racket?" {
		t.Fatalf("history = %+v", bot.history)
	}
	if !strings.Contains(bot.system, "Yonex Astrox 99") {
		t.Fatalf("prompt lacks featured product")
	}

	if w := post(r, `{"message":"x","history":[{"role":"system","content":"x"}]}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad role: %d", w.Code)
	}

	bot.err = errors.New("quota")
	if w := post(r, `{"message":"x"}`); w.Code != http.StatusBadGateway {
		t.Fatalf("upstream failure: %d", w.Code)
	}

	off := gin.New()
	off.POST("/chat", Chat(db, shop, assistant.Disabled{}))
	if w := post(off, `{"message":"x"}`); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("disabled: %d", w.Code)
	}
}

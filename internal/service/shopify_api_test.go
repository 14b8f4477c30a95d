package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/config"
	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/pkg/shopify"
)

func TestClientFactory_MissingCredentials(t *testing.T) {
	factory := NewClientFactory(config.Default().Shopify, zap.NewNop())
	_, err := factory(&model.StoreInstance{ShopifyHost: "demo"})
	assert.True(t, errors.Is(err, ErrInvalidInstance))
}

// 通过真实 HTTP 客户端跑一遍拆分导出
func TestExportProducts_OverHTTP(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
		next  int64 = 500
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		paths = append(paths, r.Method+" "+r.URL.Path)

		if r.Header.Get("X-Shopify-Access-Token") != "shpat_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/products.json") {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var in shopify.ProductEnvelope
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Product == nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		next++
		in.Product.ID = next
		for i := range in.Product.Variants {
			next++
			in.Product.Variants[i].ID = next
			in.Product.Variants[i].InventoryItemID = next * 10
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	env := newTestEnv(t)
	inst := seedInstance(t, env.db, true)
	env.db.Model(inst).UpdateColumn("shopify_host", strings.TrimPrefix(srv.URL, "http://"))
	tmpl := seedShirt(t, env.db)

	shopCfg := config.Default().Shopify
	shopCfg.BaseURLTemplate = "http://%s/admin/api/%s"
	shopCfg.RequestsPerSecond = 0
	svc := NewProductSyncService(env.db, env.instances, env.products, env.mappings,
		NewClientFactory(shopCfg, zap.NewNop()), env.cfg, zap.NewNop())

	ids, err := svc.ExportProducts(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{tmpl.ID}, ids)
	assert.Equal(t, []string{
		"POST /admin/api/2024-01/products.json",
		"POST /admin/api/2024-01/products.json",
	}, paths)

	v, _ := env.products.FindVariantBySKU(context.Background(), "SH-B-S")
	require.NotNil(t, v)
	assert.NotZero(t, v.ShopifyVariantID)
	assert.Equal(t, v.ShopifyVariantID*10, v.ShopifyInventoryItemID)
}

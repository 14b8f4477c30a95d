package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/pkg/shopify"
)

func TestCustomerMatcher_RemoteIDFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mapped := &model.Partner{Name: "Mapped", Email: "old@x.com", ShopifyCustomerID: 42}
	other := &model.Partner{Name: "Other", Email: "a@x.com", Vat: "ESB1234"}
	require.NoError(t, env.partners.Create(ctx, mapped))
	require.NoError(t, env.partners.Create(ctx, other))

	m := NewCustomerMatcher(env.partners, "", zap.NewNop())
	got, err := m.Match(ctx, &shopify.Customer{ID: 42, Email: "a@x.com", Vat: "ESB1234"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, mapped.ID, got.ID, "远端 ID 映射优先于 email/vat")
}

func TestCustomerMatcher_Keys(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := NewCustomerMatcher(nil, "", zap.New(core))

	keys := m.Keys(&shopify.Customer{Email: " A@X.com ", Vat: "es-b.12", Phone: "+34 (600) 000-000"})
	assert.Equal(t, "a@x.com", keys.Email)
	assert.Equal(t, "ES-B.12", keys.Vat)
	assert.Equal(t, "+34 (600) 000-000", keys.Phone)
	assert.Zero(t, logs.Len())

	keys = m.Keys(&shopify.Customer{Email: "not-an-email", Vat: "x", Phone: "call me"})
	assert.True(t, keys.Empty(), "格式无效的值不参与匹配")
	assert.Equal(t, 3, logs.Len())
}

func TestCustomerMatcher_PartnerName(t *testing.T) {
	m := NewCustomerMatcher(nil, "Shopify Customer", zap.NewNop())
	for _, tc := range []struct {
		in   shopify.Customer
		want string
	}{
		{shopify.Customer{FirstName: "Ana", LastName: "García"}, "Ana García"},
		{shopify.Customer{LastName: "García", Email: "ana@x.com"}, "García"},
		{shopify.Customer{Email: "ana@x.com"}, "ana@x.com"},
		{shopify.Customer{Email: "not-an-email"}, "Shopify Customer"},
		{shopify.Customer{}, "Shopify Customer"},
	} {
		if got := m.PartnerName(&tc.in); got != tc.want {
			t.Errorf("PartnerName(%+v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestImportCustomers_MatchAndCreate(t *testing.T) {
	env := newTestEnv(t)
	inst := seedInstance(t, env.db, false)
	ctx := context.Background()

	local := &model.Partner{Name: "Local A", Email: "a@x.com", Vat: "B99999999"}
	require.NoError(t, env.partners.Create(ctx, local))

	env.remote.customers = []shopify.Customer{
		{ID: 501, Email: "a@x.com"},
		{ID: 502, Email: "not-an-email"},
	}

	ids, err := env.customerSvc().ImportCustomers(ctx, ImportOptions{})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	matched, _ := env.partners.GetByID(ctx, local.ID)
	assert.Equal(t, int64(501), matched.ShopifyCustomerID, "按 email 匹配")
	assert.True(t, matched.IsShopifyCustomer)

	created, _ := env.partners.FindByShopifyCustomerID(ctx, 502)
	require.NotNil(t, created)
	assert.NotEqual(t, local.ID, created.ID)
	assert.Equal(t, "Shopify Customer", created.Name)
	assert.Empty(t, created.Email, "无效邮箱不落库")

	after, _ := env.instances.GetByID(ctx, inst.ID)
	assert.NotNil(t, after.LastCustomerImport)

	// 再次导入：已映射客户保持不变
	ids, err = env.customerSvc().ImportCustomers(ctx, ImportOptions{SkipExisting: true})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestImportCustomers_MappedPartnerNotReusedByKeys(t *testing.T) {
	env := newTestEnv(t)
	seedInstance(t, env.db, false)
	ctx := context.Background()

	taken := &model.Partner{Name: "Taken", Email: "a@x.com", ShopifyCustomerID: 1}
	require.NoError(t, env.partners.Create(ctx, taken))
	env.remote.customers = []shopify.Customer{{ID: 2, Email: "a@x.com", FirstName: "New"}}

	_, err := env.customerSvc().ImportCustomers(ctx, ImportOptions{})
	require.NoError(t, err)

	p, _ := env.partners.FindByShopifyCustomerID(ctx, 2)
	require.NotNil(t, p)
	assert.NotEqual(t, taken.ID, p.ID)
	assert.Equal(t, "New", p.Name)
}

func TestExportCustomers(t *testing.T) {
	env := newTestEnv(t)
	inst := seedInstance(t, env.db, false)
	ctx := context.Background()

	fresh := &model.Partner{Name: "Ana García López", Email: "ana@x.com", City: "Madrid"}
	linked := &model.Partner{Name: "Bob", ShopifyCustomerID: 77, IsShopifyCustomer: true}
	require.NoError(t, env.partners.Create(ctx, fresh))
	require.NoError(t, env.partners.Create(ctx, linked))

	ids, err := env.customerSvc().ExportCustomers(ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []int64{fresh.ID}, ids)

	require.Len(t, env.remote.createdCustomers, 1)
	c := env.remote.createdCustomers[0]
	assert.Equal(t, "Ana", c.FirstName)
	assert.Equal(t, "García López", c.LastName)
	require.Len(t, c.Addresses, 1)
	assert.Equal(t, "Madrid", c.Addresses[0].City)

	got, _ := env.partners.GetByID(ctx, fresh.ID)
	assert.Equal(t, c.ID, got.ShopifyCustomerID)
	assert.True(t, got.IsExported)

	// update=true：水位线之后修改过且有远端 ID 的走 PUT
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, env.partners.Touch(ctx, fresh.ID, map[string]interface{}{"city": "Sevilla"}))
	require.NoError(t, env.partners.Touch(ctx, linked.ID, map[string]interface{}{"city": "Bilbao"}))
	_, err = env.customerSvc().ExportCustomers(ctx, []int64{inst.ID}, true)
	require.NoError(t, err)
	assert.Contains(t, env.remote.updatedCustomers, int64(77))
	assert.Contains(t, env.remote.updatedCustomers, c.ID)
	assert.Equal(t, "Sevilla", env.remote.updatedCustomers[c.ID].Addresses[0].City)
	assert.Len(t, env.remote.createdCustomers, 1)
}

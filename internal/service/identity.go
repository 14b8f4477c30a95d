package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/internal/repository"
	"shopify_split_v1_202610/pkg/shopify"
)

var (
	vatPattern   = regexp.MustCompile(`^[\w\s.\-]{3,}$`)
	phonePattern = regexp.MustCompile(`^[\d+\-\s()]+$`)
)

// newKeyValidator email 用内置规则，vat/phone 注册自定义规则
func newKeyValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("vat", func(fl validator.FieldLevel) bool {
		return vatPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// CustomerMatcher 远端客户 -> 本地客户
// 优先远端 ID，其次在未绑定远端 ID 的客户中按 email / vat / phone 任一匹配
type CustomerMatcher struct {
	partners    repository.PartnerRepository
	validate    *validator.Validate
	placeholder string
	logger      *zap.Logger
}

func NewCustomerMatcher(partners repository.PartnerRepository, placeholder string, logger *zap.Logger) *CustomerMatcher {
	if placeholder == "" {
		placeholder = "Shopify Customer"
	}
	return &CustomerMatcher{
		partners:    partners,
		validate:    newKeyValidator(),
		placeholder: placeholder,
		logger:      logger,
	}
}

// Match 找不到时返回 nil, nil
func (m *CustomerMatcher) Match(ctx context.Context, c *shopify.Customer) (*model.Partner, error) {
	if c.ID != 0 {
		p, err := m.partners.FindByShopifyCustomerID(ctx, c.ID)
		if err != nil || p != nil {
			return p, err
		}
	}

	keys := m.Keys(c)
	if keys.Empty() {
		return nil, nil
	}
	return m.partners.FindUnmappedByKeys(ctx, keys)
}

// Keys 清洗后的自然键，格式不合法的值丢弃并记录
func (m *CustomerMatcher) Keys(c *shopify.Customer) repository.MatchKeys {
	var keys repository.MatchKeys
	if email := cleanEmail(c.Email); email != "" {
		if m.validate.Var(email, "email") == nil {
			keys.Email = email
		} else {
			m.logger.Warn("客户邮箱格式无效，不参与匹配", zap.Int64("customer_id", c.ID), zap.String("email", email))
		}
	}
	if vat := cleanVat(c.Vat); vat != "" {
		if m.validate.Var(vat, "vat") == nil {
			keys.Vat = vat
		} else {
			m.logger.Warn("客户税号格式无效，不参与匹配", zap.Int64("customer_id", c.ID), zap.String("vat", vat))
		}
	}
	if phone := cleanPhone(customerPhone(c)); phone != "" {
		if m.validate.Var(phone, "phone") == nil {
			keys.Phone = phone
		} else {
			m.logger.Warn("客户电话格式无效，不参与匹配", zap.Int64("customer_id", c.ID), zap.String("phone", phone))
		}
	}
	return keys
}

// PartnerName 姓名优先，其次合法邮箱，最后占位名
func (m *CustomerMatcher) PartnerName(c *shopify.Customer) string {
	if name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName)); name != "" {
		return name
	}
	if email := cleanEmail(c.Email); email != "" && m.validate.Var(email, "email") == nil {
		return email
	}
	return m.placeholder
}

// NewPartner 由远端客户构建本地客户，只写入通过校验的字段
func (m *CustomerMatcher) NewPartner(c *shopify.Customer, instanceID int64) *model.Partner {
	keys := m.Keys(c)
	p := &model.Partner{
		Name:              m.PartnerName(c),
		Email:             keys.Email,
		Vat:               keys.Vat,
		Phone:             keys.Phone,
		ShopifyCustomerID: c.ID,
		ShopifyInstanceID: &instanceID,
		IsShopifyCustomer: c.ID != 0,
	}
	if addr := c.DefaultAddress; addr != nil {
		p.Street = strings.TrimSpace(addr.Address1 + " " + addr.Address2)
		p.City = addr.City
		p.Zip = addr.Zip
		p.CountryCode = addr.CountryCode
	}
	return p
}

func customerPhone(c *shopify.Customer) string {
	if c.Phone != "" {
		return c.Phone
	}
	if c.DefaultAddress != nil {
		return c.DefaultAddress.Phone
	}
	return ""
}

func cleanEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func cleanVat(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func cleanPhone(s string) string {
	return strings.TrimSpace(s)
}

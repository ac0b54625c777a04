package models

import (
	"context"
	"errors"
	"time"

	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/utils"
)

// Account is one of the fixed, system-seeded ledger accounts. The chart is
// not configurable; every posting resolves accounts by SystemDefaultCode.
type Account struct {
	ID                int             `gorm:"primary_key" json:"id"`
	BusinessId        string          `gorm:"index;not null;index:uniq_account_code,unique" json:"business_id"`
	MainType          AccountMainType `gorm:"type:enum('Asset','Liability','Equity','Income','Expense');default:'Expense';index;size:10;not null" json:"mainType"`
	Name              string          `gorm:"index;size:100;not null" json:"name"`
	SystemDefaultCode string          `gorm:"size:3;not null;index:uniq_account_code,unique" json:"system_default_code"`
	IsActive          *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type systemAccountSeed struct {
	Code     string
	Name     string
	MainType AccountMainType
}

var systemAccountSeeds = []systemAccountSeed{
	{AccountCodeBank, "Bank", AccountMainTypeAsset},
	{AccountCodeCash, "Cash", AccountMainTypeAsset},
	{AccountCodeAccountsReceivable, "Accounts Receivable", AccountMainTypeAsset},
	{AccountCodeAccountsPayable, "Accounts Payable", AccountMainTypeLiability},
	{AccountCodeSales, "Sales", AccountMainTypeIncome},
	{AccountCodePurchases, "Purchases", AccountMainTypeExpense},
	{AccountCodeSalaryExpense, "Salary Expense", AccountMainTypeExpense},
	{AccountCodeGSTOutput, "GST Output", AccountMainTypeLiability},
	{AccountCodeGSTInput, "GST Input", AccountMainTypeAsset},
	{AccountCodeGSTPayable, "GST Payable", AccountMainTypeLiability},
}

// SeedSystemAccounts creates the fixed chart for a new business. Existing
// codes are left untouched, so re-running is safe.
func SeedSystemAccounts(ctx context.Context, businessId string) error {
	db := config.GetDB()
	for _, seed := range systemAccountSeeds {
		var count int64
		if err := db.WithContext(ctx).Model(&Account{}).
			Where("business_id = ? AND system_default_code = ?", businessId, seed.Code).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		account := Account{
			BusinessId:        businessId,
			MainType:          seed.MainType,
			Name:              seed.Name,
			SystemDefaultCode: seed.Code,
			IsActive:          utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&account).Error; err != nil {
			if utils.IsDuplicateKeyErr(err) {
				continue
			}
			return err
		}
	}
	return config.RemoveRedisKey("SystemAccounts:" + businessId)
}

// GetSystemAccounts returns SystemDefaultCode -> account id, cached in Redis.
func GetSystemAccounts(businessId string) (map[string]int, error) {
	var accounts []*Account
	var sysAccounts map[string]int

	exists, err := config.GetRedisObject("SystemAccounts:"+businessId, &sysAccounts)
	if err != nil {
		return nil, err
	}
	if !exists {
		db := config.GetDB()
		if err := db.Select("id", "system_default_code").
			Where("business_id = ?", businessId).
			Find(&accounts).Error; err != nil {
			return nil, err
		}
		sysAccounts = make(map[string]int)
		for _, acc := range accounts {
			sysAccounts[acc.SystemDefaultCode] = acc.ID
		}
		if len(sysAccounts) == 0 {
			return nil, errors.New("system accounts not seeded for business")
		}
		if err := config.SetRedisObject("SystemAccounts:"+businessId, &sysAccounts, 0); err != nil {
			return nil, err
		}
	}
	return sysAccounts, nil
}

func GetAccounts(ctx context.Context) ([]*Account, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[Account](ctx, businessId)
}

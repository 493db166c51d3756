package cmd

import (
	"cdp/core"
	"cdp/pkg/metrics"
	"cdp/service/access"
	"cdp/service/bank"
	"cdp/service/collateral"
	"cdp/service/ledger"
	"cdp/service/liquidation"
	"cdp/service/oracle"
	"cdp/service/vault"
	"cdp/store"
	collateralstore "cdp/store/collateral"
	delegationstore "cdp/store/delegation"
	eventstore "cdp/store/event"
	"cdp/store/memory"
	systemstore "cdp/store/system"
	vaultstore "cdp/store/vault"

	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	propertystore "github.com/fox-one/pkg/store/property"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/prometheus/client_golang/prometheus"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

func provideConfig() *core.Config {
	return &cfg
}

// ---------------store-----------------------------------------

type stores struct {
	transactor  core.Transactor
	system      core.SystemStore
	collaterals core.CollateralStore
	vaults      core.VaultStore
	events      core.EventStore
	delegations core.DelegationStore
}

func providePropertyStore(db *db.DB) property.Store {
	return propertystore.New(db)
}

func provideStores(database *db.DB) stores {
	return stores{
		transactor:  store.NewTransactor(database),
		system:      systemstore.New(providePropertyStore(database)),
		collaterals: collateralstore.New(database),
		vaults:      vaultstore.New(database),
		events:      eventstore.New(database),
		delegations: delegationstore.New(database),
	}
}

func provideMemoryStores() stores {
	m := memory.New()
	return stores{
		transactor:  m.Transactor(),
		system:      m.System(),
		collaterals: m.Collaterals(),
		vaults:      m.Vaults(),
		events:      m.Events(),
		delegations: m.Delegations(),
	}
}

// ------------------service------------------------------------

func provideAccess(s stores) *access.Service {
	return access.New(cfg.Admins, s.delegations)
}

func provideOracle() *oracle.Oracle {
	return oracle.FromConfig(cfg.Oracle)
}

func provideBank() *bank.Bank {
	return bank.New(cfg.App.StableSymbol, cfg.App.FeeSinkAccount, cfg.App.InsuranceAccount)
}

func provideMetrics() *metrics.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

func provideCollateralService(s stores, acl *access.Service) *collateral.Service {
	return collateral.New(s.collaterals, acl)
}

func provideVaultService(
	s stores,
	acl *access.Service,
	valuation core.Valuation,
	tokens *bank.Bank,
) *vault.Service {
	l := ledger.New(s.vaults)
	engine := liquidation.New(l, valuation, liquidation.PolicyFromConfig(cfg.App))

	return vault.New(
		s.transactor,
		s.system,
		s.events,
		provideCollateralService(s, acl),
		l,
		engine,
		valuation,
		acl,
		tokens,
		tokens.FeeSink(),
		tokens.Insurance(),
	)
}

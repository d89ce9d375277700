package domain

import "time"

// Strategy is the named parameter set a Tradestrategy runs.
type Strategy struct {
	Aspect

	Name        string `gorm:"column:name;type:varchar(45);not null;uniqueIndex"`
	Description string `gorm:"column:description;type:varchar(240)"`
	ClassName   string `gorm:"column:class_name;type:varchar(100)"`
	MarketData  bool   `gorm:"column:market_data;not null"`

	Rules []*Rule `gorm:"foreignKey:StrategyID"`
}

func (Strategy) TableName() string {
	return "strategy"
}

// Rule is one versioned revision of a strategy's source.
type Rule struct {
	Aspect

	StrategyID  uint   `gorm:"column:strategy_id;not null;uniqueIndex:idx_rule_strategy_version"`
	RuleVersion int    `gorm:"column:rule_version;not null;uniqueIndex:idx_rule_strategy_version"`
	Comment     string `gorm:"column:comment;type:varchar(240)"`
	Body        []byte `gorm:"column:body"`

	CreateDate     time.Time `gorm:"column:create_date;autoCreateTime"`
	LastUpdateDate time.Time `gorm:"column:last_update_date;autoUpdateTime"`
}

func (Rule) TableName() string {
	return "rule"
}

// CodeType groups the attributes of one parameter set, e.g. an indicator.
type CodeType struct {
	Aspect

	Name        string `gorm:"column:name;type:varchar(45);not null;uniqueIndex:idx_codetype_name_type"`
	Type        string `gorm:"column:type;type:varchar(45);not null;uniqueIndex:idx_codetype_name_type"`
	Description string `gorm:"column:description;type:varchar(100)"`

	CodeAttributes []*CodeAttribute `gorm:"foreignKey:CodeTypeID"`
}

func (CodeType) TableName() string {
	return "codetype"
}

type CodeAttribute struct {
	Aspect

	CodeTypeID   uint   `gorm:"column:codetype_id;not null;uniqueIndex:idx_codeattribute_name"`
	Name         string `gorm:"column:name;type:varchar(45);not null;uniqueIndex:idx_codeattribute_name"`
	Description  string `gorm:"column:description;type:varchar(100)"`
	DefaultValue string `gorm:"column:default_value;type:varchar(45)"`
	ClassName    string `gorm:"column:class_name;type:varchar(100)"`
}

func (CodeAttribute) TableName() string {
	return "codeattribute"
}

// CodeValue overrides an attribute's default for one tradestrategy.
type CodeValue struct {
	Aspect

	CodeAttributeID uint   `gorm:"column:codeattribute_id;not null"`
	TradestrategyID *uint  `gorm:"column:tradestrategy_id;index"`
	Value           string `gorm:"column:code_value;type:varchar(45);not null"`

	CodeAttribute *CodeAttribute `gorm:"foreignKey:CodeAttributeID"`
}

func (CodeValue) TableName() string {
	return "codevalue"
}

package store

import (
	"context"
	"fmt"

	"tradecalendar/internal/domain"
)

// PersistRule saves a strategy rule. A new rule without a version is numbered
// one above the strategy's current maximum.
func (s *Session) PersistRule(ctx context.Context, rule *domain.Rule) error {
	before, version := rule.Aspect, rule.RuleVersion
	err := s.InTx(ctx, func(ctx context.Context) error {
		if rule.ID == 0 && rule.RuleVersion == 0 {
			latest, err := s.FindMaxRuleVersion(ctx, rule.StrategyID)
			if err != nil {
				return err
			}
			rule.RuleVersion = latest + 1
		}
		return s.Save(ctx, rule)
	})
	if err != nil {
		rule.Aspect, rule.RuleVersion = before, version
		return fmt.Errorf("persist rule strategy=%d: %w", rule.StrategyID, err)
	}
	return nil
}

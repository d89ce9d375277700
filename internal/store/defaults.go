package store

import (
	"context"
	"fmt"

	"tradecalendar/internal/domain"
)

// ResetDefaultPortfolio makes p the only default portfolio. It scans the whole
// table in one transaction; the portfolio count is expected to stay small.
func (s *Session) ResetDefaultPortfolio(ctx context.Context, p *domain.Portfolio) error {
	err := resetDefault(ctx, s, p,
		func(row *domain.Portfolio) *bool { return &row.IsDefault },
	)
	if err != nil {
		return fmt.Errorf("reset default portfolio %q: %w", p.Name, err)
	}
	return nil
}

// ResetDefaultAccount makes a the only default account.
func (s *Session) ResetDefaultAccount(ctx context.Context, a *domain.TradeAccount) error {
	err := resetDefault(ctx, s, a,
		func(row *domain.TradeAccount) *bool { return &row.IsDefault },
	)
	if err != nil {
		return fmt.Errorf("reset default account %q: %w", a.AccountNumber, err)
	}
	return nil
}

func resetDefault[T any, P interface {
	*T
	domain.Entity
}](ctx context.Context, s *Session, target P, flag func(P) *bool) error {
	id, version, isDefault := target.GetID(), target.LockVersion(), *flag(target)

	err := s.InTx(ctx, func(ctx context.Context) error {
		if target.GetID() == 0 {
			*flag(target) = true
			if err := s.Save(ctx, target); err != nil {
				return err
			}
		}

		var rows []P
		if err := s.conn(ctx).Order("id").Find(&rows).Error; err != nil {
			return err
		}

		for _, row := range rows {
			want := row.GetID() == target.GetID()
			if *flag(row) != want {
				*flag(row) = want
				if err := s.Save(ctx, row); err != nil {
					return err
				}
			}
			if want {
				*flag(target) = true
				target.SetLockVersion(row.LockVersion())
			}
		}
		return nil
	})
	if err != nil {
		target.SetID(id)
		target.SetLockVersion(version)
		*flag(target) = isDefault
	}
	return err
}

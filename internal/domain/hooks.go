package domain

import "gorm.io/gorm"

// Timestamps are stored in UTC.

func (d *Tradingday) BeforeSave(*gorm.DB) error {
	d.Open = d.Open.UTC()
	d.Close = d.Close.UTC()
	return nil
}

func (c *Contract) BeforeSave(*gorm.DB) error {
	if c.Expiry != nil {
		utc := c.Expiry.UTC()
		c.Expiry = &utc
	}
	return nil
}

func (c *Candle) BeforeSave(*gorm.DB) error {
	c.StartPeriod = c.StartPeriod.UTC()
	c.EndPeriod = c.EndPeriod.UTC()
	return nil
}

func (f *TradeOrderfill) BeforeSave(*gorm.DB) error {
	f.Time = f.Time.UTC()
	return nil
}

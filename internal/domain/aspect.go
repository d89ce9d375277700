package domain

// Aspect is embedded by every persisted entity: a surrogate id (0 until the
// row exists) and a nullable optimistic lock counter.
type Aspect struct {
	ID      uint `gorm:"primaryKey"`
	Version *int `gorm:"column:version"`
}

func (a *Aspect) GetID() uint { return a.ID }

func (a *Aspect) SetID(id uint) { a.ID = id }

func (a *Aspect) LockVersion() *int { return a.Version }

func (a *Aspect) SetLockVersion(v *int) { a.Version = v }

// Entity is anything the store can save or remove by surrogate id.
type Entity interface {
	GetID() uint
	SetID(id uint)
	LockVersion() *int
	SetLockVersion(v *int)
}

package models

// OrderSequenceModel holds the last order number issued per prefix and year
type OrderSequenceModel struct {
	Prefix    string `gorm:"type:varchar(10);primaryKey"`
	Year      int    `gorm:"primaryKey;autoIncrement:false"`
	LastValue int64  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderSequenceModel) TableName() string {
	return "order_sequences"
}

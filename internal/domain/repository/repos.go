package repository

// Repos agrupa los repositorios atados a una misma transacción (o al pool fuera de ella).
type Repos struct {
	Products       ProductRepository
	Stock          StockRepository
	Movements      InventoryMovementRepository
	Customers      CustomerRepository
	Sales          SaleRepository
	Credits        CreditSaleRepository
	CreditPayments CreditPaymentRepository
}

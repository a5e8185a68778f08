package domain

// Product — читаемая модель товара, необходимая пайплайну заказа: снапшот имени и цены.
// CRUD товаров живёт во внешнем сервисе и сюда не входит.
type Product struct {
	ID    int64
	Name  string
	Price int64
}

// CardDetails — данные карты, передаваемые платёжному шлюзу.
type CardDetails struct {
	Number      string
	ExpiryMonth int
	ExpiryYear  int
	CVC         string
}

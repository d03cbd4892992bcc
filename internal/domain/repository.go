package domain

// Page описывает skip/take-пагинацию списочных запросов.
// Take <= 0 означает "значение по умолчанию на усмотрение вызывающего".
type Page struct {
	Skip int
	Take int
}

// CustomerFilter задаёт критерии выборки клиентов.
type CustomerFilter struct {
	// Name — регистронезависимый поиск подстроки.
	Name string
	// Email — точное совпадение.
	Email string
	Page  Page
}

// ProductFilter задаёт критерии выборки товаров.
type ProductFilter struct {
	// Name — регистронезависимый поиск подстроки.
	Name     string
	Category string
	// Active фильтрует по флагу активности; nil — без фильтра.
	Active *bool
	Page   Page
}

// OrderFilter задаёт критерии выборки заказов.
type OrderFilter struct {
	Status     OrderStatus
	CustomerID string
	Page       Page
}

// CustomerRepository описывает требования к хранилищу клиентов.
type CustomerRepository interface {
	// Create сохраняет нового клиента. Возвращает ErrEmailAlreadyRegistered,
	// если email уже занят.
	Create(customer Customer) error
	// Get возвращает клиента по идентификатору или ErrCustomerNotFound.
	Get(id string) (Customer, error)
	// GetByEmail возвращает клиента по email или ErrCustomerNotFound.
	GetByEmail(email string) (Customer, error)
	// List возвращает клиентов по фильтру, новые первыми.
	List(filter CustomerFilter) ([]Customer, error)
	// Count возвращает количество клиентов, подходящих под фильтр без пагинации.
	Count(filter CustomerFilter) (int, error)
	// Update перезаписывает поля клиента. ErrCustomerNotFound, если записи нет.
	Update(customer Customer) error
	// Delete удаляет клиента. ErrCustomerHasOrders, если на него ссылаются заказы.
	Delete(id string) error
}

// ProductRepository описывает требования к хранилищу товаров.
type ProductRepository interface {
	// Create сохраняет новый товар. ErrProductNameTaken при занятом названии.
	Create(product Product) error
	// Get возвращает товар по идентификатору или ErrProductNotFound.
	Get(id string) (Product, error)
	// FindByName возвращает товары с точным совпадением названия.
	// Используется проверкой уникальности, не поиском по каталогу.
	FindByName(name string) ([]Product, error)
	// List возвращает товары по фильтру, новые первыми.
	List(filter ProductFilter) ([]Product, error)
	// Count возвращает количество товаров, подходящих под фильтр без пагинации.
	Count(filter ProductFilter) (int, error)
	// Update перезаписывает поля товара. ErrProductNotFound, если записи нет.
	Update(product Product) error
	// Delete удаляет товар по идентификатору.
	Delete(id string) error
	// AdjustStock применяет дельту к остатку атомарно: операция отклоняется
	// с InsufficientStockError, если итог ушёл бы в минус. Именно это
	// условное обновление, а не предварительная читающая проверка,
	// гарантирует неотрицательность остатка под конкурентной нагрузкой.
	AdjustStock(id string, delta int32) (Product, error)
}

// OrderRepository описывает требования к хранилищу заказов. Методы,
// затрагивающие и заказ, и остатки, обязаны применять весь набор записей
// одной атомарной транзакцией: частичных эффектов при ошибке быть не должно.
type OrderRepository interface {
	// Create сохраняет заказ с позициями и списывает остаток каждого товара
	// на qty соответствующей позиции. Единая транзакция: либо заказ, позиции
	// и все списания зафиксированы, либо ничего.
	Create(order Order) error
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(id string) (Order, error)
	// List возвращает заказы с позициями по фильтру, новые первыми.
	List(filter OrderFilter) ([]Order, error)
	// Count возвращает количество заказов, подходящих под фильтр без пагинации.
	Count(filter OrderFilter) (int, error)
	// Update перезаписывает поля шапки заказа (статус, заметку, клиента).
	// Позиции не затрагивает.
	Update(order Order) error
	// AddLine добавляет позицию, списывает остаток товара и пересчитывает
	// сумму заказа по полному набору позиций. Единая транзакция.
	AddLine(orderID string, line OrderLine) (Order, error)
	// RemoveLine удаляет позицию, возвращает остаток товара и пересчитывает
	// сумму заказа. ErrOrderLineNotFound, если позиция не принадлежит заказу.
	// Единая транзакция. Возвращает удалённую позицию.
	RemoveLine(orderID, lineID string) (OrderLine, error)
	// Delete возвращает остатки по всем позициям заказа и удаляет заказ
	// вместе с позициями (каскад). Единая транзакция.
	Delete(id string) error
}

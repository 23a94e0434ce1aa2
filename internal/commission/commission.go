package commission

import "github.com/shopspring/decimal"

// DefaultRate — ставка комиссии площадки по умолчанию (3%).
var DefaultRate = decimal.RequireFromString("0.03")

// Fee возвращает комиссию площадки: round(price * rate, 2).
// Расчёт только в fixed-point: двоичная плавающая точка для денег запрещена.
func Fee(price, rate decimal.Decimal) decimal.Decimal {
	return price.Mul(rate).Round(2)
}

// SellerNet возвращает сумму к выплате продавцу после вычета комиссии.
func SellerNet(price, rate decimal.Decimal) decimal.Decimal {
	return price.Sub(Fee(price, rate))
}

package sentiment

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
)

// AlertType says which side of the target price triggers an alert.
type AlertType string

const (
	AlertAbove AlertType = "above"
	AlertBelow AlertType = "below"
)

// PriceAlert is a saved price threshold for one stock.
type PriceAlert struct {
	Key       string    `json:"key"`
	Exchange  string    `json:"exchange"`
	Symbol    string    `json:"symbol"`
	Target    Amount    `json:"target"`
	Type      AlertType `json:"type"`
	CreatedAt int64     `json:"createdAt"`
}

// AlertTrigger is returned when a check fires an alert. Delivering the
// notification is up to the caller.
type AlertTrigger struct {
	Alert PriceAlert `json:"alert"`
	Price float64    `json:"price"`
	Title string     `json:"title"`
	Body  string     `json:"body"`
}

// AlertStore persists price alerts keyed by "<EXCHANGE>:<SYMBOL>".
// Get returns nil, nil for an unknown key.
type AlertStore interface {
	Get(key string) (*PriceAlert, error)
	Put(alert PriceAlert) error
	Delete(key string) error
	List() ([]PriceAlert, error)
}

// SetPriceAlert saves an alert for a stock, replacing any existing one. The
// alert fires above the target when the target is higher than currentPrice
// and below it otherwise.
func (c *Core) SetPriceAlert(exchange, symbol string, target, currentPrice float64) (*PriceAlert, error) {
	exchange = strings.ToUpper(strings.TrimSpace(exchange))
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if exchange == "" || symbol == "" {
		return nil, NewError(ErrCodeInvalidInput, "exchange and symbol are required")
	}
	if !isFinite(target) || !isFinite(currentPrice) {
		return nil, NewError(ErrCodeInvalidInput, "prices must be finite numbers")
	}
	if target <= 0 {
		return nil, NewError(ErrCodeInvalidInput, "target price must be positive")
	}
	alertType := AlertBelow
	if target > currentPrice {
		alertType = AlertAbove
	}
	alert := PriceAlert{
		Key:       alertKey(exchange, symbol),
		Exchange:  exchange,
		Symbol:    symbol,
		Target:    NewAmount(target),
		Type:      alertType,
		CreatedAt: c.now().UnixMilli(),
	}
	if err := c.alerts.Put(alert); err != nil {
		return nil, err
	}
	c.logger.Info("price alert saved", "key", alert.Key, "target", target, "type", alert.Type)
	return &alert, nil
}

// GetPriceAlert returns the alert for a stock.
func (c *Core) GetPriceAlert(exchange, symbol string) (*PriceAlert, error) {
	alert, err := c.alerts.Get(alertKey(exchange, symbol))
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, NewError(ErrCodeNotFound, "price alert not found")
	}
	return alert, nil
}

// RemovePriceAlert deletes the alert for a stock. Removing a missing alert is
// not an error.
func (c *Core) RemovePriceAlert(exchange, symbol string) error {
	return c.alerts.Delete(alertKey(exchange, symbol))
}

// ListPriceAlerts returns every saved alert, oldest first.
func (c *Core) ListPriceAlerts() ([]PriceAlert, error) {
	return c.alerts.List()
}

// CheckPriceAlert compares the alert for a stock against a fresh price. A
// triggered alert is removed and described in the returned AlertTrigger. A
// nil trigger means nothing fired.
func (c *Core) CheckPriceAlert(exchange, stockSymbol, currencySymbol string, price float64) (*AlertTrigger, error) {
	if !isFinite(price) {
		return nil, NewError(ErrCodeInvalidInput, "price must be a finite number")
	}
	key := alertKey(exchange, stockSymbol)
	alert, err := c.alerts.Get(key)
	if err != nil || alert == nil {
		return nil, err
	}
	if !alertFires(*alert, price) {
		return nil, nil
	}
	if err := c.alerts.Delete(key); err != nil {
		return nil, err
	}
	target, _ := alert.Target.Float64()
	c.logger.Info("price alert triggered", "key", key, "price", price, "target", target)
	return &AlertTrigger{
		Alert: *alert,
		Price: price,
		Title: fmt.Sprintf("Price Alert: %s", strings.ToUpper(strings.TrimSpace(stockSymbol))),
		Body: fmt.Sprintf("%s has reached your target of %s. Current price: %s",
			strings.ToUpper(strings.TrimSpace(stockSymbol)),
			FormatPrice(currencySymbol, target),
			FormatPrice(currencySymbol, price),
		),
	}, nil
}

// CheckAnalysisAlert runs CheckPriceAlert with the price from an analysis.
func (c *Core) CheckAnalysisAlert(exchange string, a *SentimentAnalysis) (*AlertTrigger, error) {
	return c.CheckPriceAlert(exchange, a.StockSymbol, a.CurrencySymbol, a.CurrentPrice)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func alertFires(alert PriceAlert, price float64) bool {
	p := NewAmount(price)
	switch alert.Type {
	case AlertAbove:
		return p.GreaterThanOrEqual(alert.Target.Decimal)
	case AlertBelow:
		return p.LessThanOrEqual(alert.Target.Decimal)
	}
	return false
}

type sqliteAlertStore struct {
	db *sql.DB
}

func (s *sqliteAlertStore) Get(key string) (*PriceAlert, error) {
	var alert PriceAlert
	err := s.db.QueryRow(`
		SELECT alert_key, exchange, symbol, target, alert_type, created_at
		FROM price_alerts
		WHERE alert_key = ?
	`, key).Scan(&alert.Key, &alert.Exchange, &alert.Symbol, &alert.Target, &alert.Type, &alert.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to load price alert", err)
	}
	return &alert, nil
}

func (s *sqliteAlertStore) Put(alert PriceAlert) error {
	_, err := s.db.Exec(`
		INSERT INTO price_alerts (alert_key, exchange, symbol, target, alert_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(alert_key) DO UPDATE SET
			target = excluded.target,
			alert_type = excluded.alert_type,
			created_at = excluded.created_at
	`, alert.Key, alert.Exchange, alert.Symbol, alert.Target, string(alert.Type), alert.CreatedAt)
	if err != nil {
		return WrapError(ErrCodeDatabase, "failed to save price alert", err)
	}
	return nil
}

func (s *sqliteAlertStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM price_alerts WHERE alert_key = ?`, key); err != nil {
		return WrapError(ErrCodeDatabase, "failed to delete price alert", err)
	}
	return nil
}

func (s *sqliteAlertStore) List() ([]PriceAlert, error) {
	rows, err := s.db.Query(`
		SELECT alert_key, exchange, symbol, target, alert_type, created_at
		FROM price_alerts
		ORDER BY created_at, alert_key
	`)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to list price alerts", err)
	}
	defer rows.Close()

	alerts := []PriceAlert{}
	for rows.Next() {
		var alert PriceAlert
		if err := rows.Scan(&alert.Key, &alert.Exchange, &alert.Symbol, &alert.Target, &alert.Type, &alert.CreatedAt); err != nil {
			return nil, WrapError(ErrCodeDatabase, "failed to scan price alert", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError(ErrCodeDatabase, "failed to list price alerts", err)
	}
	return alerts, nil
}

package strategy

import "fmt"

// BaseStrategy provides common functionality shared by all strategies
type BaseStrategy struct {
	Name       string
	Parameters map[string]interface{}
}

// NewBaseStrategy creates a new base strategy
func NewBaseStrategy(name string, parameters map[string]interface{}) BaseStrategy {
	if parameters == nil {
		parameters = make(map[string]interface{})
	}
	return BaseStrategy{
		Name:       name,
		Parameters: parameters,
	}
}

// GetName returns the strategy name
func (b *BaseStrategy) GetName() string {
	return b.Name
}

// GetParameters returns the strategy parameters
func (b *BaseStrategy) GetParameters() map[string]interface{} {
	return b.Parameters
}

// GetFloatParam retrieves a float parameter with a default value
func (b *BaseStrategy) GetFloatParam(key string, defaultValue float64) float64 {
	if value, exists := b.Parameters[key]; exists {
		switch v := value.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return defaultValue
}

// GetIntParam retrieves an int parameter with a default value
func (b *BaseStrategy) GetIntParam(key string, defaultValue int) int {
	if value, exists := b.Parameters[key]; exists {
		switch v := value.(type) {
		case int:
			return v
		case float64:
			return int(v)
		}
	}
	return defaultValue
}

// GetBoolParam retrieves a bool parameter with a default value
func (b *BaseStrategy) GetBoolParam(key string, defaultValue bool) bool {
	if value, exists := b.Parameters[key]; exists {
		if v, ok := value.(bool); ok {
			return v
		}
	}
	return defaultValue
}

// AllInPositionSize spends the available cash on whole shares at the given
// price, leaving headroom for round-trip commission. Shared by the simple
// strategies.
func AllInPositionSize(price, availableCash, commissionPct float64) float64 {
	if price <= 0 || availableCash <= 0 {
		return 0
	}
	usable := availableCash / (1 + 2*commissionPct)
	qty := float64(int(usable / price))
	if qty < 1 {
		return 0
	}
	return qty
}

// String returns a human-readable description of the strategy
func (b *BaseStrategy) String() string {
	return fmt.Sprintf("%s%v", b.Name, b.Parameters)
}

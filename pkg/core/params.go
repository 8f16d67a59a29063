package core

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
)

// Param is a single named request parameter.
type Param struct {
	Key   string
	Value any
}

// Params is an insertion-ordered set of request parameters.
// Its JSON form keeps that order, which matters wherever the encoded bytes are signed.
type Params []Param

// Set assigns value to key. An existing key keeps its position.
func (p *Params) Set(key string, value any) *Params {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return p
		}
	}
	*p = append(*p, Param{Key: key, Value: value})
	return p
}

// Get returns the value stored under key.
func (p Params) Get(key string) (any, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Keys returns the parameter names in insertion order.
func (p Params) Keys() []string {
	keys := make([]string, len(p))
	for i, kv := range p {
		keys[i] = kv.Key
	}
	return keys
}

// MarshalJSON encodes the params as a compact JSON object in insertion order.
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := sonic.Marshal(kv.Key)
		if err != nil {
			return nil, fmt.Errorf("encode key %q: %w", kv.Key, err)
		}
		val, err := sonic.Marshal(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("encode value of %q: %w", kv.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Values converts the params to url.Values for use as a query string.
func (p Params) Values() url.Values {
	values := make(url.Values, len(p))
	for _, kv := range p {
		values.Set(kv.Key, FormatParam(kv.Value))
	}
	return values
}

// FormatParam renders a parameter value the way it travels in a query string.
func FormatParam(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case *apd.Decimal:
		return val.Text('f')
	case apd.Decimal:
		return val.Text('f')
	case time.Time:
		return strconv.FormatInt(val.Unix(), 10)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

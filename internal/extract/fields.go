// Package extract turns the free text of a classified conversation turn into
// the fields of a canonical order. Two textual conventions coexist in the
// message corpus: the current tag convention (lower-case colon-terminated
// markers, e.g. "valor_total: R$ 38,50") and the legacy prose convention
// (markdown-bold values after a label, e.g. "Valor Total: **R$ 38**"). Every
// field extractor tries its matchers in fixed priority order — tag first,
// legacy second — and failed matches yield "no value", never an error.
package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/acaiflow/orderboard/internal/order"
)

// Documented defaults for fields with no recoverable value.
const (
	DefaultAddress = "Endereço não informado"
	DefaultPayment = "Não informado"

	// noObservations is the assistant's literal for "nothing to note"; it
	// normalizes to an absent observation.
	noObservations = "Nenhuma observação adicional"

	// genericItemName names the synthesized line item when a total exists
	// but no items were parseable.
	genericItemName = "Açaí"
)

var (
	reTotalTag    = regexp.MustCompile(`(?i)valor_total:\s*(?:R\$\s*)?(\d+[.,]\d{2})`)
	reTotalLegacy = regexp.MustCompile(`Valor Total:\s*\*\*R\$\s*(\d+(?:[.,]\d{1,2})?)\*\*`)

	// Item markers repeat, one line per item. The name runs up to the dash
	// separating it from the price; hyphen, en dash and em dash all occur in
	// the corpus.
	reItemAcai     = regexp.MustCompile(`(?i)item_açai:\s*([^\n—–-]+?)\s*[—–-]\s*R\$\s*(\d+(?:[.,]\d{1,2})?)`)
	reItemSmoothie = regexp.MustCompile(`(?i)item_smoothie:\s*([^\n—–-]+?)\s*[—–-]\s*R\$\s*(\d+(?:[.,]\d{1,2})?)`)
	reToppingTag   = regexp.MustCompile(`(?i)item_topping:\s*([^\n—–-]+?)\s*[—–-]\s*R\$\s*(\d+(?:[.,]\d{1,2})?)`)

	reItemLegacy     = regexp.MustCompile(`Açaí \d+\s*oz:\s*\*\*R\$\s*(\d+(?:[.,]\d{1,2})?)\*\*`)
	reItemLegacyName = regexp.MustCompile(`Açaí \d+\s*oz`)
	reToppingLegacy  = regexp.MustCompile(`- Topping:\s*([^:\n]+):\s*\*\*(Grátis|R\$\s*(\d+(?:[.,]\d{1,2})?))\*\*`)

	reAddressTag    = regexp.MustCompile(`(?i)endereco_cliente:\s*([^\n]+)`)
	reAddressLegacy = regexp.MustCompile(`Endereço:\s*\*\*([^*]+)\*\*`)

	rePaymentTag    = regexp.MustCompile(`(?i)forma_pagamento:\s*([^\n]+)`)
	rePaymentLegacy = regexp.MustCompile(`Forma de pagamento:\s*\*\*([^*]+)\*\*`)

	reObservationTag = regexp.MustCompile(`(?i)observacao_cliente:\s*([^\n]+)`)
)

// moneyMatcher and textMatcher are single tiers of a field's fallback chain.
type moneyMatcher func(content string) (decimal.Decimal, bool)
type textMatcher func(content string) (string, bool)

var totalMatchers = []moneyMatcher{
	matchOne(reTotalTag), matchOne(reTotalLegacy),
}

var addressMatchers = []textMatcher{
	matchText(reAddressTag), matchText(reAddressLegacy),
}

var paymentMatchers = []textMatcher{
	matchText(rePaymentTag), matchText(rePaymentLegacy),
}

func matchOne(re *regexp.Regexp) moneyMatcher {
	return func(content string) (decimal.Decimal, bool) {
		m := re.FindStringSubmatch(content)
		if m == nil {
			return decimal.Zero, false
		}
		return parseMoney(m[1])
	}
}

func matchText(re *regexp.Regexp) textMatcher {
	return func(content string) (string, bool) {
		m := re.FindStringSubmatch(content)
		if m == nil {
			return "", false
		}
		v := strings.TrimSpace(m[1])
		if v == "" {
			return "", false
		}
		return v, true
	}
}

// Total extracts the explicit order total. The computed fallback (summing
// items) belongs to the assembler, not this extractor.
func Total(content string) (decimal.Decimal, bool) {
	for _, m := range totalMatchers {
		if d, ok := m(content); ok {
			return d, true
		}
	}
	return decimal.Zero, false
}

// Items extracts all priced line items, in extraction order: every açaí tag
// match, then every smoothie tag match. When the tag convention yields
// nothing, the legacy single-item form is tried.
func Items(content string) []order.LineItem {
	items := matchAll(reItemAcai, content)
	items = append(items, matchAll(reItemSmoothie, content)...)
	if len(items) > 0 {
		return items
	}
	return legacyItems(content)
}

// Toppings extracts topping lines. A zero price means the topping is included
// in the total. Toppings are never synthesized; no match yields nil.
func Toppings(content string) []order.LineItem {
	if tops := matchAll(reToppingTag, content); len(tops) > 0 {
		return tops
	}
	return legacyToppings(content)
}

// Address extracts the delivery address, defaulting to DefaultAddress.
func Address(content string) string {
	for _, m := range addressMatchers {
		if v, ok := m(content); ok {
			return v
		}
	}
	return DefaultAddress
}

// Payment extracts the payment method, defaulting to DefaultPayment.
func Payment(content string) string {
	for _, m := range paymentMatchers {
		if v, ok := m(content); ok {
			return v
		}
	}
	return DefaultPayment
}

// Observations extracts customer remarks. The "no additional observation"
// literal and absent markers both yield the empty string.
func Observations(content string) string {
	m := reObservationTag.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	obs := strings.TrimSpace(m[1])
	if obs == noObservations {
		return ""
	}
	return obs
}

func matchAll(re *regexp.Regexp, content string) []order.LineItem {
	var items []order.LineItem
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(m[1])
		price, ok := parseMoney(m[2])
		if name == "" || !ok {
			continue
		}
		items = append(items, order.LineItem{Name: name, Price: price})
	}
	return items
}

func legacyItems(content string) []order.LineItem {
	m := reItemLegacy.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	price, ok := parseMoney(m[1])
	if !ok {
		return nil
	}
	name := genericItemName
	if n := reItemLegacyName.FindString(content); n != "" {
		name = n
	}
	return []order.LineItem{{Name: name, Price: price}}
}

func legacyToppings(content string) []order.LineItem {
	var tops []order.LineItem
	for _, m := range reToppingLegacy.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		price := decimal.Zero
		if m[2] != "Grátis" {
			p, ok := parseMoney(m[3])
			if !ok {
				continue
			}
			price = p
		}
		tops = append(tops, order.LineItem{Name: name, Price: price})
	}
	return tops
}

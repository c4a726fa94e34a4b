// Package admission gates job submission per tenant: a token-bucket rate
// limiter and a concurrency cap, checked together so a submission either
// clears both or is rejected without side effects.
package admission

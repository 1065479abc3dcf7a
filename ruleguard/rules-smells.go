package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two guards returning the same value can be merged with ||.
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)
}

func lookups(m dsl.Matcher) {
	// Provider name matching is case-insensitive; comparing two lowered strings
	// allocates twice for the same answer.
	m.Match(`strings.ToLower($a) == strings.ToLower($b)`).
		Report(`use strings.EqualFold($a, $b)`).
		Suggest(`strings.EqualFold($a, $b)`)

	m.Match(`strings.ToLower($a) != strings.ToLower($b)`).
		Report(`use !strings.EqualFold($a, $b)`).
		Suggest(`!strings.EqualFold($a, $b)`)
}

func errorsIs(m dsl.Matcher) {
	// Not-found errors are wrapped with the caller's identifier, so == misses them.
	m.Match(`$err == $sentinel`, `$sentinel == $err`).
		Where(m["err"].Type.Is(`error`) && m["err"].Text.Matches(`^err\w*$`) && m["sentinel"].Text.Matches(`^(\w+\.)?Err\w+$`)).
		Report(`compare errors with errors.Is($err, $sentinel)`).
		Suggest(`errors.Is($err, $sentinel)`)

	m.Match(`$err != $sentinel`, `$sentinel != $err`).
		Where(m["err"].Type.Is(`error`) && m["err"].Text.Matches(`^err\w*$`) && m["sentinel"].Text.Matches(`^(\w+\.)?Err\w+$`)).
		Report(`compare errors with !errors.Is($err, $sentinel)`).
		Suggest(`!errors.Is($err, $sentinel)`)
}

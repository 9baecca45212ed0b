// Package guard gates shell commands and file writes before they execute.
//
// A Bash command flows through four checks in a fixed order:
//
//  1. Danger catalog: literal, anchored-regex, and keyword rules over the
//     normalized command. A match denies and names the rule.
//  2. Shell-feature validator: constructs that smuggle content past
//     matching (process substitution, here-strings, IFS games, brace
//     alternatives, nested substitution) deny naming the feature.
//  3. Git validator: protected-branch and commit-message violations deny;
//     branch naming and commit scope only attach advisories.
//  4. Learned patterns: operator-approved literal prefixes that clear a
//     command which survived every check above. The catalog is evaluated
//     first unconditionally, so a learned pattern can never override it.
//
// Normalization (escape expansion, quote stripping, compound splitting,
// lower-casing) exists for detection only; the command that executes is
// the one the caller sent.
//
// File writes get their own pipeline: credential globs and .git internals
// deny, everything else allows with advisories for oversized rewrites and
// embedded secrets.
//
// All state the gate touches per invocation lives in a CheckContext
// constructed for that invocation. Store failures fail open for advisory
// features and never turn into a deny on their own.
package guard

/*
Package smartcontract contains the typed value model used to pass arguments
to the GlowSphere contract and to return its results.

Values are represented by Parameter, a pair of a ParamType and a Go value:
booleans, unsigned integers, ASCII strings, principals (Hash160), lists
(Array) and tuples (Map with string keys). Results of public calls are
wrapped into Response, which is either (ok value) or (err code).
*/
package smartcontract

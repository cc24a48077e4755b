package contracts

import "github.com/ethereum/go-ethereum/accounts/abi"

// abiConvert converts an unpacked ABI value to T.
func abiConvert[T any](v any) *T {
	return abi.ConvertType(v, new(T)).(*T)
}

// ConvertPresaleTuple converts an unpacked Presale tuple value.
func ConvertPresaleTuple(v any) *PresaleTuple {
	return abiConvert[PresaleTuple](v)
}

package bank

// accountStorageOverhead is the number of bytes charged on top of an
// account's data for its metadata.
const accountStorageOverhead = 128

// Rent is the flat rent exemption formula applied to data-bearing accounts.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  uint64
}

// MinimumBalance is the number of lamports an account with dataLen bytes of
// data must hold.
func (r Rent) MinimumBalance(dataLen uint64) uint64 {
	return (accountStorageOverhead + dataLen) * r.LamportsPerByteYear * r.ExemptionThreshold
}

// IsExempt reports whether an account is exempt from rent. Accounts without
// data are always exempt.
func (r Rent) IsExempt(lamports uint64, dataLen uint64) bool {
	if dataLen == 0 {
		return true
	}
	return lamports >= r.MinimumBalance(dataLen)
}

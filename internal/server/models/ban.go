package models

// BanMode says how a storage ban affects new submissions.
type BanMode string

const (
	// BanModePlain rejects the whole submission.
	BanModePlain BanMode = "BAN"
	// BanModeWaitAsSubmit accepts the submission but puts affected files on
	// hold.
	BanModeWaitAsSubmit BanMode = "WAIT_AS_SUBMIT"
)

// BanWildcardVO matches submissions from any VO.
const BanWildcardVO = "*"

// Ban is one entry of the ban registry snapshot: a storage element banned
// for a VO (or for all VOs via the wildcard).
type Ban struct {
	SE   string
	VO   string
	Mode BanMode
}

// Applies reports whether the ban covers a submission made under vo.
func (b Ban) Applies(vo string) bool {
	return b.VO == BanWildcardVO || b.VO == vo
}

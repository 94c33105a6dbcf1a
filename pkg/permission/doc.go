// Package permission defines the fixed capability bit enumeration and the
// pure mask algebra the evaluator is built on.
//
// Every caller role and every command policy is a Mask: a combination of
// power-of-two Bits in a single uint32. Policy resolution is plain bitwise
// arithmetic:
//
//	effective := permission.Restrict(commandMask, boundingMask)
//	allowed := permission.Intersects(effective, callerBits)
//
// GroupAdmin is a derived bit: the union of the six specific admin rights.
// Everyone is reserved for inline/anonymous contexts and is never implied by
// any other bit.
package permission

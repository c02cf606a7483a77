package spritegroup

// CallbackID identifies a callback family queried through variable
// VarCallbackID.
type CallbackID uint16

const (
	// CallbackRandomTrigger re-randomizes an entity's random bits.
	CallbackRandomTrigger CallbackID = 0x01

	// CallbackRefitCost prices a cargo refit.
	CallbackRefitCost CallbackID = 0x15

	// CallbackRefitCapacity reports post-refit cargo capacity.
	CallbackRefitCapacity CallbackID = 0x16

	// Callback32DayTick runs once per 32-day cycle.
	Callback32DayTick CallbackID = 0x32

	// CallbackModifyProperty overrides a numeric engine property; the
	// queried property index arrives in VarCallbackParam.
	CallbackModifyProperty CallbackID = 0x36
)

// PropVehicleSpeed is the modify-property index for vehicle speed.
// Speed overrides are the one property whose value may depend on the
// rail type under the entity, so the analyzer asks a dependent
// railtype-reachability question when it sees this index.
const PropVehicleSpeed uint32 = 0x09

// CallbackFailed is the reserved "no usable result" sentinel. It is a
// legal wire value for nothing else; callers compare against it rather
// than testing for zero.
const CallbackFailed uint16 = 0xFFFF

// Callback results are 15-bit payloads; the top result bit flags the
// low/high encoding and is stripped before use.
const CallbackResultMask uint16 = 0x7FFF

// Well-known variable IDs read by adjusts. Entity-specific variables
// occupy the rest of the byte space and are answered by the scope
// resolvers; the IDs below have engine-level meaning.
const (
	// VarCallbackID holds the callback currently being resolved.
	VarCallbackID uint8 = 0x0C

	// VarCallbackParam holds the callback parameter; for the
	// modify-property callback it carries the queried property index.
	VarCallbackParam uint8 = 0x10

	// VarLastComputed reads the accumulator of the calling group, which
	// is how a subroutine observes its caller's last computed value.
	VarLastComputed uint8 = 0x1C

	// VarConstant reads the all-ones constant 0xFFFFFFFF; shift and
	// mask shape it into arbitrary immediates. Reads of it never touch
	// entity state.
	VarConstant uint8 = 0x1A

	// VarRailtype reads rail-type information; reachability of this
	// variable under the speed property decides railtype-sensitive
	// speed caching.
	VarRailtype uint8 = 0x4A

	// VarRandomBits reads the entity's random bits.
	VarRandomBits uint8 = 0x5F

	// VarAnimFrame reads the tile's own animation frame.
	VarAnimFrame uint8 = 0x43

	// VarNearbyAnimFrame reads a nearby tile's animation frame; the
	// adjust parameter packs the positional offset.
	VarNearbyAnimFrame uint8 = 0x61

	// VarPersistent reads a persistent storage register.
	VarPersistent uint8 = 0x7C

	// VarTemp reads a temporary storage register.
	VarTemp uint8 = 0x7D

	// VarProcedure calls a subroutine group and reads its result.
	VarProcedure uint8 = 0x7E
)

// Temporary register file geometry. Registers 0x100..0x10F extend the
// byte-addressed space; register RegRelativeOffset feeds relative-scope
// recomputation.
const (
	NumTempRegisters  = 0x110
	NumPSARegisters   = 16
	RegRelativeOffset = 0x100
)

// Pseudo-cargo sentinels. Real cargo indices are below MaxCargoTypes;
// the sentinels select the fallback and purchase-list graphs and must
// never be iterated as cargo.
const (
	MaxCargoTypes = 64
	DefaultCargo  = MaxCargoTypes
	PurchaseCargo = MaxCargoTypes + 1
)

package identity

// Operation es una capacidad sobre el core clínico.
type Operation string

const (
	OpRegisterUser       Operation = "user:register"
	OpRegisterPatient    Operation = "patient:register"
	OpReadPatient        Operation = "patient:read"
	OpListUsers          Operation = "user:list"
	OpCreateRecord       Operation = "record:create"
	OpReadRecords        Operation = "record:read"
	OpCreatePrescription Operation = "prescription:create"
	OpReadPrescription   Operation = "prescription:read"
	OpVerifyPrescription Operation = "prescription:verify"
	OpDispense           Operation = "dispense:write"
	OpReadDispensations  Operation = "dispense:read"
	OpReadAudit          Operation = "audit:read"
	OpFlagAudit          Operation = "audit:flag"
)

// Relation describe la relación entre el actor y el dueño del recurso.
type Relation int

const (
	RelationNone Relation = iota
	RelationSelf
)

// Authorize es puro: depende solo de (rol, operación, relación).
// Cualquier combinación no listada se niega.
func Authorize(role Role, op Operation, rel Relation) bool {
	switch role {
	case RolePatient:
		switch op {
		case OpReadPatient, OpReadRecords, OpReadPrescription:
			return rel == RelationSelf
		}
		return false

	case RoleDoctor:
		switch op {
		case OpRegisterPatient, OpReadPatient,
			OpCreateRecord, OpReadRecords,
			OpCreatePrescription, OpReadPrescription, OpVerifyPrescription:
			return true
		}
		return false

	case RolePharmacy:
		switch op {
		case OpVerifyPrescription, OpDispense:
			return true
		case OpReadDispensations:
			return rel == RelationSelf
		}
		return false

	case RoleAdmin:
		switch op {
		case OpRegisterUser, OpRegisterPatient, OpReadPatient, OpListUsers,
			OpReadAudit, OpFlagAudit, OpReadDispensations:
			return true
		}
		return false

	case RoleAuditor:
		switch op {
		case OpReadAudit, OpFlagAudit, OpReadDispensations:
			return true
		}
		return false
	}

	return false
}

// RelationTo deriva la relación del actor con el dueño del recurso.
func RelationTo(actor User, ownerID string) Relation {
	if ownerID != "" && actor.ID == ownerID {
		return RelationSelf
	}
	return RelationNone
}

// Can es el atajo que usan los services.
func Can(actor User, op Operation, ownerID string) bool {
	if actor.ID == "" {
		return false
	}
	return Authorize(actor.Role, op, RelationTo(actor, ownerID))
}

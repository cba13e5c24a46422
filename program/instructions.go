package program

import (
	"encoding/binary"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
)

// RecipientInput is the wire form of a recipient in create/update payloads.
type RecipientInput struct {
	Address       solana.PublicKey
	PercentageBps uint16
}

// encodeRecipients writes a borsh Vec<RecipientInput>: u32-LE length prefix
// followed by each 32-byte address and u16-LE bps.
func encodeRecipients(data []byte, recipients []RecipientInput) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(recipients)))
	data = append(data, lenBuf[:]...)
	for _, r := range recipients {
		data = append(data, r.Address[:]...)
		var bps [2]byte
		binary.LittleEndian.PutUint16(bps[:], r.PercentageBps)
		data = append(data, bps[:]...)
	}
	return data
}

// CreateSplitConfigParams names the accounts and payload of a
// create_split_config instruction.
type CreateSplitConfigParams struct {
	SplitConfig   solana.PublicKey
	UniqueID      solana.PublicKey
	Authority     solana.PublicKey
	Payer         solana.PublicKey
	Mint          solana.PublicKey
	Vault         solana.PublicKey
	Recipients    []RecipientInput
	RecipientATAs []solana.PublicKey
}

// NewCreateSplitConfigInstruction builds the create_split_config instruction.
// Account order matches the program's CreateSplitConfig context; recipient
// ATAs ride as remaining accounts in recipient order, which the program
// indexes positionally during validation.
func NewCreateSplitConfigInstruction(p CreateSplitConfigParams) (solana.Instruction, error) {
	if len(p.Recipients) != len(p.RecipientATAs) {
		return nil, fmt.Errorf("recipient/ATA count mismatch: %d vs %d", len(p.Recipients), len(p.RecipientATAs))
	}

	data := make([]byte, 0, 8+32+4+len(p.Recipients)*34)
	data = append(data, DiscriminatorCreateSplitConfig[:]...)
	data = append(data, p.Mint[:]...)
	data = encodeRecipients(data, p.Recipients)

	accounts := solana.AccountMetaSlice{
		solana.Meta(p.SplitConfig).WRITE(),
		solana.Meta(p.UniqueID),
		solana.Meta(p.Authority).SIGNER(),
		solana.Meta(p.Payer).WRITE().SIGNER(),
		solana.Meta(p.Mint),
		solana.Meta(p.Vault).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SPLAssociatedTokenAccountProgramID),
		solana.Meta(solana.SystemProgramID),
	}
	for _, ata := range p.RecipientATAs {
		accounts = append(accounts, solana.Meta(ata))
	}

	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// UpdateSplitConfigParams names the accounts and payload of an
// update_split_config instruction.
type UpdateSplitConfigParams struct {
	SplitConfig   solana.PublicKey
	Vault         solana.PublicKey
	Mint          solana.PublicKey
	Authority     solana.PublicKey
	Recipients    []RecipientInput
	RecipientATAs []solana.PublicKey
}

// NewUpdateSplitConfigInstruction builds the update_split_config instruction.
func NewUpdateSplitConfigInstruction(p UpdateSplitConfigParams) (solana.Instruction, error) {
	if len(p.Recipients) != len(p.RecipientATAs) {
		return nil, fmt.Errorf("recipient/ATA count mismatch: %d vs %d", len(p.Recipients), len(p.RecipientATAs))
	}

	data := make([]byte, 0, 8+4+len(p.Recipients)*34)
	data = append(data, DiscriminatorUpdateSplitConfig[:]...)
	data = encodeRecipients(data, p.Recipients)

	accounts := solana.AccountMetaSlice{
		solana.Meta(p.SplitConfig).WRITE(),
		solana.Meta(p.Vault),
		solana.Meta(p.Mint),
		solana.Meta(p.Authority).SIGNER(),
		solana.Meta(solana.TokenProgramID),
	}
	for _, ata := range p.RecipientATAs {
		accounts = append(accounts, solana.Meta(ata))
	}

	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// NewCloseSplitConfigInstruction builds the close_split_config instruction.
// The program refunds rent to the authority and requires the vault and all
// unclaimed amounts to be empty.
func NewCloseSplitConfigInstruction(splitConfig, vault, authority solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		solana.Meta(splitConfig).WRITE(),
		solana.Meta(vault).WRITE(),
		solana.Meta(authority).WRITE().SIGNER(),
		solana.Meta(solana.TokenProgramID),
	}
	return solana.NewInstruction(ProgramID, accounts, DiscriminatorCloseSplitConfig[:])
}

// ExecuteSplitParams names the accounts of an execute_split instruction.
type ExecuteSplitParams struct {
	SplitConfig    solana.PublicKey
	Vault          solana.PublicKey
	Mint           solana.PublicKey
	ProtocolConfig solana.PublicKey
	Executor       solana.PublicKey
	RecipientATAs  []solana.PublicKey
	ProtocolATA    solana.PublicKey
}

// NewExecuteSplitInstruction builds the permissionless execute_split
// instruction. Remaining accounts carry one writable ATA per recipient in
// config order, with the protocol fee ATA always last.
func NewExecuteSplitInstruction(p ExecuteSplitParams) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		solana.Meta(p.SplitConfig).WRITE(),
		solana.Meta(p.Vault).WRITE(),
		solana.Meta(p.Mint),
		solana.Meta(p.ProtocolConfig),
		solana.Meta(p.Executor),
		solana.Meta(solana.TokenProgramID),
	}
	for _, ata := range p.RecipientATAs {
		accounts = append(accounts, solana.Meta(ata).WRITE())
	}
	accounts = append(accounts, solana.Meta(p.ProtocolATA).WRITE())

	return solana.NewInstruction(ProgramID, accounts, DiscriminatorExecuteSplit[:])
}

// NewInitializeProtocolInstruction builds the one-time protocol bootstrap
// instruction. Only the program upgrade authority may execute it.
func NewInitializeProtocolInstruction(protocolConfig, authority, programData, feeWallet solana.PublicKey) solana.Instruction {
	data := make([]byte, 0, 8+32)
	data = append(data, DiscriminatorInitializeProtocol[:]...)
	data = append(data, feeWallet[:]...)

	accounts := solana.AccountMetaSlice{
		solana.Meta(protocolConfig).WRITE(),
		solana.Meta(authority).WRITE().SIGNER(),
		solana.Meta(programData),
		solana.Meta(solana.SystemProgramID),
	}
	return solana.NewInstruction(ProgramID, accounts, data)
}

// NewUpdateProtocolConfigInstruction builds the fee wallet rotation
// instruction.
func NewUpdateProtocolConfigInstruction(protocolConfig, authority, newFeeWallet solana.PublicKey) solana.Instruction {
	data := make([]byte, 0, 8+32)
	data = append(data, DiscriminatorUpdateProtocolConfig[:]...)
	data = append(data, newFeeWallet[:]...)

	accounts := solana.AccountMetaSlice{
		solana.Meta(protocolConfig).WRITE(),
		solana.Meta(authority).SIGNER(),
	}
	return solana.NewInstruction(ProgramID, accounts, data)
}

// NewTransferProtocolAuthorityInstruction starts a two-step authority
// transfer.
func NewTransferProtocolAuthorityInstruction(protocolConfig, authority, newAuthority solana.PublicKey) solana.Instruction {
	data := make([]byte, 0, 8+32)
	data = append(data, DiscriminatorTransferProtocolAuthority[:]...)
	data = append(data, newAuthority[:]...)

	accounts := solana.AccountMetaSlice{
		solana.Meta(protocolConfig).WRITE(),
		solana.Meta(authority).SIGNER(),
	}
	return solana.NewInstruction(ProgramID, accounts, data)
}

// NewAcceptProtocolAuthorityInstruction completes a two-step authority
// transfer; the pending authority signs.
func NewAcceptProtocolAuthorityInstruction(protocolConfig, newAuthority solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		solana.Meta(protocolConfig).WRITE(),
		solana.Meta(newAuthority).SIGNER(),
	}
	return solana.NewInstruction(ProgramID, accounts, DiscriminatorAcceptProtocolAuthority[:])
}

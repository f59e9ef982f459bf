package output

import "broker-removal/internal/domain/entity"

type InstructionGenerator interface {
	Instructions(broker *entity.Broker) (*entity.ManualInstructions, error)
	EmailTemplate(user *entity.UserProfile, broker *entity.Broker) (*entity.EmailTemplate, error)
	Checklist(user *entity.UserProfile, brokers []entity.Broker) (*entity.RemovalChecklist, error)
}

package main

import (
	"classpulse/internal/queue/rabbitmq"
	"classpulse/internal/repository"
	"classpulse/internal/service/audit"
	"classpulse/internal/service/notify"
	"classpulse/internal/service/presence"
	"classpulse/internal/ws"
)

func provideNotificationRepo(s repository.Store) repository.NotificationRepository { return s }

func provideUserRepo(s repository.Store) repository.UserRepository { return s }

func provideAuditRepo(s repository.Store) repository.AuditRepository { return s }

func provideClassRepo(s repository.Store) repository.ClassRepository { return s }

func provideNotifyBus(h *ws.Hub) notify.Broadcaster { return h }

func providePresenceBus(h *ws.Hub) presence.Broadcaster { return h }

func provideAuditBus(h *ws.Hub) audit.Broadcaster { return h }

func provideQueueBus(h *ws.Hub) rabbitmq.Broadcaster { return h }

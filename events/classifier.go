package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

type eventVariant struct {
	required []string
	sources  map[SourceType]sourceVariant
	build    func(raw map[string]any, common Common) (Event, error)
}

type sourceVariant struct {
	required []string
	build    func(raw map[string]any) (Source, error)
}

type messageVariant struct {
	required []string
	build    func(raw map[string]any) (Message, error)
}

type providerVariant struct {
	required []string
	build    func(raw map[string]any) (ContentProvider, error)
}

var commonRequired = []string{"mode", "timestamp", "source", "webhookEventId", "deliveryContext"}

// Message events always carry userId, group and room included.
var messageSources = map[SourceType]sourceVariant{
	SourceTypeUser:  {required: []string{"userId"}, build: buildUserSource},
	SourceTypeGroup: {required: []string{"groupId", "userId"}, build: buildGroupSource},
	SourceTypeRoom:  {required: []string{"roomId", "userId"}, build: buildRoomSource},
}

var commonSources = map[SourceType]sourceVariant{
	SourceTypeUser:  {required: []string{"userId"}, build: buildUserSource},
	SourceTypeGroup: {required: []string{"groupId"}, build: buildGroupSource},
	SourceTypeRoom:  {required: []string{"roomId"}, build: buildRoomSource},
}

var eventVariants = map[Kind]eventVariant{
	KindMessage:      {required: []string{"replyToken", "message"}, sources: messageSources, build: buildMessageEvent},
	KindUnsend:       {required: []string{"unsend"}, sources: commonSources, build: buildUnsendEvent},
	KindFollow:       {required: []string{"replyToken"}, sources: commonSources, build: buildFollowEvent},
	KindUnfollow:     {sources: commonSources, build: buildUnfollowEvent},
	KindJoin:         {required: []string{"replyToken"}, sources: commonSources, build: buildJoinEvent},
	KindLeave:        {sources: commonSources, build: buildLeaveEvent},
	KindMemberJoined: {required: []string{"replyToken", "joined"}, sources: commonSources, build: buildMemberJoinedEvent},
	KindMemberLeft:   {required: []string{"left"}, sources: commonSources, build: buildMemberLeftEvent},
}

var messageVariants = map[MessageType]messageVariant{
	MessageTypeText:     {required: []string{"id", "text", "quoteToken"}, build: buildTextMessage},
	MessageTypeImage:    {required: []string{"id", "quoteToken", "contentProvider"}, build: buildImageMessage},
	MessageTypeVideo:    {required: []string{"id", "quoteToken", "contentProvider"}, build: buildVideoMessage},
	MessageTypeAudio:    {required: []string{"id", "contentProvider"}, build: buildAudioMessage},
	MessageTypeFile:     {required: []string{"id", "fileName", "fileSize"}, build: buildFileMessage},
	MessageTypeLocation: {required: []string{"id", "latitude", "longitude"}, build: buildLocationMessage},
	MessageTypeSticker:  {required: []string{"id", "quoteToken", "packageId", "stickerId", "stickerResourceType"}, build: buildStickerMessage},
}

var mediaProviders = map[ContentProviderType]providerVariant{
	ContentProviderLine:     {build: buildLineProvider},
	ContentProviderExternal: {required: []string{"originalContentUrl", "previewImageUrl"}, build: buildExternalProvider},
}

// Audio hosted externally has no preview image.
var audioProviders = map[ContentProviderType]providerVariant{
	ContentProviderLine:     {build: buildLineProvider},
	ContentProviderExternal: {required: []string{"originalContentUrl"}, build: buildExternalProvider},
}

// Classify turns one decoded webhook event object into its typed variant.
// Unknown discriminants at any level fail with LINEBOT_UNRECOGNIZED_KIND,
// missing or mistyped fields with LINEBOT_MALFORMED_PAYLOAD.
func Classify(raw map[string]any) (Event, error) {
	if raw == nil {
		return nil, malformedField("event", "event object is required")
	}
	kind, err := discriminant(raw, "type")
	if err != nil {
		return nil, err
	}
	variant, ok := eventVariants[Kind(kind)]
	if !ok {
		return nil, unrecognizedKind("type", kind)
	}
	if err := requireKeys(raw, "", commonRequired...); err != nil {
		return nil, err
	}
	if err := requireKeys(raw, "", variant.required...); err != nil {
		return nil, err
	}
	common, err := buildCommon(raw, variant.sources)
	if err != nil {
		return nil, err
	}
	return variant.build(raw, common)
}

// ClassifyJSON decodes a single event object and classifies it. Numbers are
// kept as json.Number so millisecond timestamps keep full precision.
func ClassifyJSON(data []byte) (Event, error) {
	raw := map[string]any{}
	if err := decodeJSON(data, &raw); err != nil {
		return nil, malformedDecode("event", err)
	}
	return Classify(raw)
}

// DecodeEnvelope reads a webhook request body. Events are left untyped.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var envelope Envelope
	if err := decodeJSON(body, &envelope); err != nil {
		return Envelope{}, malformedDecode("body", err)
	}
	return envelope, nil
}

func decodeJSON(data []byte, out any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(out)
}

func buildCommon(raw map[string]any, sources map[SourceType]sourceVariant) (Common, error) {
	var common Common
	if err := decodeInto(raw, &common, ""); err != nil {
		return Common{}, err
	}
	delivery, err := object(raw, "deliveryContext")
	if err != nil {
		return Common{}, err
	}
	if err := requireKeys(delivery, "deliveryContext", "isRedelivery"); err != nil {
		return Common{}, err
	}
	if err := validateCommon(common); err != nil {
		return Common{}, err
	}
	source, err := buildSource(raw, "source", sources)
	if err != nil {
		return Common{}, err
	}
	common.Source = source
	return common, nil
}

func buildSource(raw map[string]any, key string, table map[SourceType]sourceVariant) (Source, error) {
	node, err := object(raw, key)
	if err != nil {
		return nil, err
	}
	return classifySource(node, key, table)
}

func classifySource(node map[string]any, path string, table map[SourceType]sourceVariant) (Source, error) {
	sourceType, err := discriminant(node, joinPath(path, "type"))
	if err != nil {
		return nil, err
	}
	variant, ok := table[SourceType(sourceType)]
	if !ok {
		return nil, unrecognizedKind(joinPath(path, "type"), sourceType)
	}
	if err := requireKeys(node, path, variant.required...); err != nil {
		return nil, err
	}
	source, err := variant.build(node)
	if err != nil {
		return nil, err
	}
	if err := validateSource(path, source); err != nil {
		return nil, err
	}
	return source, nil
}

func buildUserSource(raw map[string]any) (Source, error) {
	var source UserSource
	if err := decodeInto(raw, &source, "source"); err != nil {
		return nil, err
	}
	return source, nil
}

func buildGroupSource(raw map[string]any) (Source, error) {
	var source GroupSource
	if err := decodeInto(raw, &source, "source"); err != nil {
		return nil, err
	}
	return source, nil
}

func buildRoomSource(raw map[string]any) (Source, error) {
	var source RoomSource
	if err := decodeInto(raw, &source, "source"); err != nil {
		return nil, err
	}
	return source, nil
}

func buildMessageEvent(raw map[string]any, common Common) (Event, error) {
	event := MessageEvent{Common: common}
	if err := decodeInto(raw, &event, ""); err != nil {
		return nil, err
	}
	if err := validateReplyToken(event.ReplyToken); err != nil {
		return nil, err
	}
	node, err := object(raw, "message")
	if err != nil {
		return nil, err
	}
	messageType, err := discriminant(node, "message.type")
	if err != nil {
		return nil, err
	}
	variant, ok := messageVariants[MessageType(messageType)]
	if !ok {
		return nil, unrecognizedKind("message.type", messageType)
	}
	if err := requireKeys(node, "message", variant.required...); err != nil {
		return nil, err
	}
	message, err := variant.build(node)
	if err != nil {
		return nil, err
	}
	event.Message = message
	return event, nil
}

func buildUnsendEvent(raw map[string]any, common Common) (Event, error) {
	node, err := object(raw, "unsend")
	if err != nil {
		return nil, err
	}
	if err := requireKeys(node, "unsend", "messageId"); err != nil {
		return nil, err
	}
	var payload struct {
		MessageID string `json:"messageId"`
	}
	if err := decodeInto(node, &payload, "unsend"); err != nil {
		return nil, err
	}
	return UnsendEvent{Common: common, MessageID: payload.MessageID}, nil
}

func buildFollowEvent(raw map[string]any, common Common) (Event, error) {
	event := FollowEvent{Common: common}
	if err := decodeInto(raw, &event, ""); err != nil {
		return nil, err
	}
	if err := validateReplyToken(event.ReplyToken); err != nil {
		return nil, err
	}
	if _, present := raw["follow"]; present {
		node, err := object(raw, "follow")
		if err != nil {
			return nil, err
		}
		var payload struct {
			IsUnblocked bool `json:"isUnblocked"`
		}
		if err := decodeInto(node, &payload, "follow"); err != nil {
			return nil, err
		}
		event.IsUnblocked = payload.IsUnblocked
	}
	return event, nil
}

func buildUnfollowEvent(_ map[string]any, common Common) (Event, error) {
	return UnfollowEvent{Common: common}, nil
}

func buildJoinEvent(raw map[string]any, common Common) (Event, error) {
	event := JoinEvent{Common: common}
	if err := decodeInto(raw, &event, ""); err != nil {
		return nil, err
	}
	if err := validateReplyToken(event.ReplyToken); err != nil {
		return nil, err
	}
	return event, nil
}

func buildLeaveEvent(_ map[string]any, common Common) (Event, error) {
	return LeaveEvent{Common: common}, nil
}

func buildMemberJoinedEvent(raw map[string]any, common Common) (Event, error) {
	event := MemberJoinedEvent{Common: common}
	if err := decodeInto(raw, &event, ""); err != nil {
		return nil, err
	}
	if err := validateReplyToken(event.ReplyToken); err != nil {
		return nil, err
	}
	members, err := buildMembers(raw, "joined")
	if err != nil {
		return nil, err
	}
	event.Members = members
	return event, nil
}

func buildMemberLeftEvent(raw map[string]any, common Common) (Event, error) {
	members, err := buildMembers(raw, "left")
	if err != nil {
		return nil, err
	}
	return MemberLeftEvent{Common: common, Members: members}, nil
}

// buildMembers reads joined.members / left.members. Only user sources are
// valid members.
func buildMembers(raw map[string]any, key string) ([]UserSource, error) {
	node, err := object(raw, key)
	if err != nil {
		return nil, err
	}
	if err := requireKeys(node, key, "members"); err != nil {
		return nil, err
	}
	items, ok := node["members"].([]any)
	if !ok {
		return nil, malformedField(joinPath(key, "members"), "must be an array")
	}
	members := make([]UserSource, 0, len(items))
	for index, item := range items {
		path := fmt.Sprintf("%s.members[%d]", key, index)
		memberRaw, ok := item.(map[string]any)
		if !ok {
			return nil, malformedField(path, "must be an object")
		}
		source, err := classifySource(memberRaw, path, userOnlySources)
		if err != nil {
			return nil, err
		}
		members = append(members, source.(UserSource))
	}
	return members, nil
}

var userOnlySources = map[SourceType]sourceVariant{
	SourceTypeUser: {required: []string{"userId"}, build: buildUserSource},
}

func buildTextMessage(raw map[string]any) (Message, error) {
	message := &TextMessage{}
	if err := decodeInto(raw, message, "message"); err != nil {
		return nil, err
	}
	if err := validateText(message); err != nil {
		return nil, err
	}
	return message, nil
}

func buildImageMessage(raw map[string]any) (Message, error) {
	message := &ImageMessage{}
	if err := decodeInto(raw, message, "message"); err != nil {
		return nil, err
	}
	if message.ImageSet != nil {
		node, err := object(raw, "imageSet")
		if err != nil {
			return nil, err
		}
		if err := requireKeys(node, "message.imageSet", "id", "index", "total"); err != nil {
			return nil, err
		}
	}
	if err := validateImage(message); err != nil {
		return nil, err
	}
	provider, err := buildProvider(raw, mediaProviders)
	if err != nil {
		return nil, err
	}
	message.ContentProvider = provider
	return message, nil
}

func buildVideoMessage(raw map[string]any) (Message, error) {
	message := &VideoMessage{}
	if err := decodeInto(raw, message, "message"); err != nil {
		return nil, err
	}
	if err := validateMediaID(message.ID); err != nil {
		return nil, err
	}
	provider, err := buildProvider(raw, mediaProviders)
	if err != nil {
		return nil, err
	}
	message.ContentProvider = provider
	return message, nil
}

func buildAudioMessage(raw map[string]any) (Message, error) {
	message := &AudioMessage{}
	if err := decodeInto(raw, message, "message"); err != nil {
		return nil, err
	}
	if err := validateMediaID(message.ID); err != nil {
		return nil, err
	}
	provider, err := buildProvider(raw, audioProviders)
	if err != nil {
		return nil, err
	}
	message.ContentProvider = provider
	return message, nil
}

func buildFileMessage(raw map[string]any) (Message, error) {
	message := &FileMessage{}
	if err := decodeInto(raw, message, "message"); err != nil {
		return nil, err
	}
	if err := validateFile(message); err != nil {
		return nil, err
	}
	return message, nil
}

func buildLocationMessage(raw map[string]any) (Message, error) {
	message := &LocationMessage{}
	if err := decodeInto(raw, message, "message"); err != nil {
		return nil, err
	}
	if err := validateLocation(message); err != nil {
		return nil, err
	}
	return message, nil
}

func buildStickerMessage(raw map[string]any) (Message, error) {
	message := &StickerMessage{}
	if err := decodeInto(raw, message, "message"); err != nil {
		return nil, err
	}
	if err := validateSticker(message); err != nil {
		return nil, err
	}
	return message, nil
}

func buildProvider(raw map[string]any, table map[ContentProviderType]providerVariant) (ContentProvider, error) {
	node, err := object(raw, "contentProvider")
	if err != nil {
		return nil, err
	}
	providerType, err := discriminant(node, "message.contentProvider.type")
	if err != nil {
		return nil, err
	}
	variant, ok := table[ContentProviderType(providerType)]
	if !ok {
		return nil, unrecognizedKind("message.contentProvider.type", providerType)
	}
	if err := requireKeys(node, "message.contentProvider", variant.required...); err != nil {
		return nil, err
	}
	return variant.build(node)
}

func buildLineProvider(map[string]any) (ContentProvider, error) {
	return LineContentProvider{}, nil
}

func buildExternalProvider(raw map[string]any) (ContentProvider, error) {
	var provider ExternalContentProvider
	if err := decodeInto(raw, &provider, "message.contentProvider"); err != nil {
		return nil, err
	}
	if err := validateExternalProvider(provider); err != nil {
		return nil, err
	}
	return provider, nil
}

func discriminant(raw map[string]any, path string) (string, error) {
	key := path
	if index := strings.LastIndex(path, "."); index >= 0 {
		key = path[index+1:]
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return "", malformedField(path, "is required")
	}
	tag, ok := value.(string)
	if !ok {
		return "", malformedField(path, "must be a string")
	}
	return tag, nil
}

func object(raw map[string]any, key string) (map[string]any, error) {
	value, ok := raw[key]
	if !ok || value == nil {
		return nil, malformedField(key, "is required")
	}
	node, ok := value.(map[string]any)
	if !ok {
		return nil, malformedField(key, "must be an object")
	}
	return node, nil
}

func requireKeys(raw map[string]any, path string, keys ...string) error {
	for _, key := range keys {
		if value, ok := raw[key]; !ok || value == nil {
			return malformedField(joinPath(path, key), "is required")
		}
	}
	return nil
}

var jsonNumberType = reflect.TypeOf(json.Number(""))

// rejectNumberAsString keeps numeric wire values out of string fields;
// mapstructure would otherwise accept json.Number as a string kind.
func rejectNumberAsString(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from == jsonNumberType && to.Kind() == reflect.String {
		return nil, fmt.Errorf("expected string, got number %v", data)
	}
	return data, nil
}

// rejectFractionalInt refuses floats that would be truncated into integer
// fields. Maps decoded without UseNumber carry every number as float64.
func rejectFractionalInt(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		value := reflect.ValueOf(data).Float()
		if value != math.Trunc(value) || math.IsInf(value, 0) || math.IsNaN(value) {
			return nil, fmt.Errorf("expected integer, got %v", data)
		}
	}
	return data, nil
}

func decodeInto(input map[string]any, out any, path string) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(rejectNumberAsString, rejectFractionalInt),
	})
	if err != nil {
		return malformedDecode(path, err)
	}
	if err := decoder.Decode(input); err != nil {
		if path == "" {
			path = "event"
		}
		return malformedDecode(path, err)
	}
	return nil
}

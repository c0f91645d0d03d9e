// SPDX-License-Identifier: MIT

package nodes

// catalogue is the SDK-provided node-type inventory. Template ids equal
// node types; overlays in specialTemplates may replace entries with
// richer defaults.
func catalogue() []Template {
	return []Template{
		// Sources
		{TemplateID: "file_src", NodeType: "file_src", Category: CategorySource,
			DisplayName:        "File source",
			Description:        "Reads frames from a local video file.",
			RequiredParameters: []string{"FILE_PATH"},
			OptionalParameters: []string{"resize_ratio", "loop"}},
		{TemplateID: "rtsp_src", NodeType: "rtsp_src", Category: CategorySource,
			DisplayName:        "RTSP source",
			Description:        "Pulls an RTSP stream.",
			RequiredParameters: []string{"RTSP_URL"},
			OptionalParameters: []string{"resize_ratio", "RTSP_TRANSPORT"}},
		{TemplateID: "rtmp_src", NodeType: "rtmp_src", Category: CategorySource,
			DisplayName:        "RTMP source",
			RequiredParameters: []string{"RTMP_SRC_URL"},
			OptionalParameters: []string{"resize_ratio"}},
		{TemplateID: "udp_src", NodeType: "udp_src", Category: CategorySource,
			DisplayName:        "UDP source",
			RequiredParameters: []string{"UDP_PORT"},
			OptionalParameters: []string{"resize_ratio"}},
		{TemplateID: "hls_src", NodeType: "hls_src", Category: CategorySource,
			DisplayName:        "HLS source",
			RequiredParameters: []string{"HLS_URL"},
			OptionalParameters: []string{"resize_ratio"}},

		// Detectors
		{TemplateID: "face_detector", NodeType: "face_detector", Category: CategoryDetector,
			DisplayName:        "Face detector",
			RequiredParameters: []string{"model"},
			OptionalParameters: []string{"threshold"}},
		{TemplateID: "object_detector", NodeType: "object_detector", Category: CategoryDetector,
			DisplayName:        "Object detector",
			RequiredParameters: []string{"model"},
			OptionalParameters: []string{"threshold", "classes"}},
		{TemplateID: "motion_detector", NodeType: "motion_detector", Category: CategoryDetector,
			DisplayName:        "Motion detector",
			OptionalParameters: []string{"sensitivity"}},

		// Processors
		{TemplateID: "tracker", NodeType: "tracker", Category: CategoryProcessor,
			DisplayName:        "Multi-object tracker",
			OptionalParameters: []string{"max_age", "min_hits"}},
		{TemplateID: "osd", NodeType: "osd", Category: CategoryProcessor,
			DisplayName:        "On-screen display overlay",
			OptionalParameters: []string{"font_path", "show_labels"}},
		{TemplateID: "crossline_analytics", NodeType: "crossline_analytics", Category: CategoryProcessor,
			DisplayName:        "Line-crossing analytics",
			OptionalParameters: []string{"lines"}},
		{TemplateID: "area_analytics", NodeType: "area_analytics", Category: CategoryProcessor,
			DisplayName:        "Area analytics",
			OptionalParameters: []string{"areas"}},

		// Destinations
		{TemplateID: "file_des", NodeType: "file_des", Category: CategoryDestination,
			DisplayName:        "File destination",
			RequiredParameters: []string{"OUTPUT_DIR"},
			OptionalParameters: []string{"segment_seconds"}},
		{TemplateID: "rtmp_des", NodeType: "rtmp_des", Category: CategoryDestination,
			DisplayName:        "RTMP destination",
			RequiredParameters: []string{"RTMP_URL"}},
		{TemplateID: "rtsp_des", NodeType: "rtsp_des", Category: CategoryDestination,
			DisplayName:        "RTSP destination",
			RequiredParameters: []string{"RTSP_DES_URL"}},
		{TemplateID: "screen_des", NodeType: "screen_des", Category: CategoryDestination,
			DisplayName: "Screen destination"},

		// Brokers
		{TemplateID: "mqtt_broker", NodeType: "mqtt_broker", Category: CategoryBroker,
			DisplayName:        "MQTT event broker",
			RequiredParameters: []string{"MQTT_URL"},
			OptionalParameters: []string{"topic", "qos"}},
		{TemplateID: "kafka_broker", NodeType: "kafka_broker", Category: CategoryBroker,
			DisplayName:        "Kafka event broker",
			RequiredParameters: []string{"KAFKA_BROKERS"},
			OptionalParameters: []string{"topic"}},
		{TemplateID: "console_broker", NodeType: "console_broker", Category: CategoryBroker,
			DisplayName:   "Console event broker",
			PreConfigured: true},
	}
}

// specialTemplates overwrite or augment imported entries with richer
// defaults so the common paths work without user input.
func specialTemplates() []Template {
	return []Template{
		{TemplateID: "file_src", NodeType: "file_src", Category: CategorySource,
			DisplayName:        "File source",
			Description:        "Reads frames from a local video file.",
			DefaultParameters:  map[string]string{"FILE_PATH": "/opt/edge_ai_api/videos/face.mp4", "resize_ratio": "1.0"},
			RequiredParameters: []string{"FILE_PATH"},
			OptionalParameters: []string{"resize_ratio", "loop"},
			PreConfigured:      true},
		{TemplateID: "face_detector", NodeType: "face_detector", Category: CategoryDetector,
			DisplayName:        "Face detector",
			DefaultParameters:  map[string]string{"model": "models/face/yunet.onnx", "threshold": "0.7"},
			RequiredParameters: []string{"model"},
			OptionalParameters: []string{"threshold"},
			PreConfigured:      true},
		{TemplateID: "object_detector", NodeType: "object_detector", Category: CategoryDetector,
			DisplayName:        "Object detector",
			DefaultParameters:  map[string]string{"model": "models/object/yolov8n.onnx", "threshold": "0.7"},
			RequiredParameters: []string{"model"},
			OptionalParameters: []string{"threshold", "classes"},
			PreConfigured:      true},
		{TemplateID: "file_des", NodeType: "file_des", Category: CategoryDestination,
			DisplayName:        "File destination",
			DefaultParameters:  map[string]string{"OUTPUT_DIR": "/opt/edge_ai_api/output"},
			RequiredParameters: []string{"OUTPUT_DIR"},
			OptionalParameters: []string{"segment_seconds"},
			PreConfigured:      true},
		{TemplateID: "tracker", NodeType: "tracker", Category: CategoryProcessor,
			DisplayName:        "Multi-object tracker",
			DefaultParameters:  map[string]string{"max_age": "30", "min_hits": "3"},
			OptionalParameters: []string{"max_age", "min_hits"},
			PreConfigured:      true},
		{TemplateID: "osd", NodeType: "osd", Category: CategoryProcessor,
			DisplayName:        "On-screen display overlay",
			DefaultParameters:  map[string]string{"show_labels": "true"},
			OptionalParameters: []string{"font_path", "show_labels"},
			PreConfigured:      true},
	}
}

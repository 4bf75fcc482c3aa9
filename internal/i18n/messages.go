/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package i18n

// Message keys.
const (
	KeyAppTitle                     Key = "appTitle"
	KeyHistory                      Key = "history"
	KeyCollapseHistory              Key = "collapseHistory"
	KeyExpandHistory                Key = "expandHistory"
	KeyOriginal                     Key = "original"
	KeyOriginalUploadedImage        Key = "originalUploadedImage"
	KeyViewGeneratedImage           Key = "viewGeneratedImage"
	KeyNoImagesGenerated            Key = "noImagesGenerated"
	KeyClearHistory                 Key = "clearHistory"
	KeyUploadTitle                  Key = "uploadTitle"
	KeyOriginalImageTitle           Key = "originalImageTitle"
	KeySetSceneTitle                Key = "setSceneTitle"
	KeySetSceneTitleNumbered        Key = "setSceneTitleNumbered"
	KeyViewResultsTitle             Key = "viewResultsTitle"
	KeyViewResultsTitleNumbered     Key = "viewResultsTitleNumbered"
	KeyViewResultsTitleNumberedAlt  Key = "viewResultsTitleNumberedAlt"
	KeyClickToUpload                Key = "clickToUpload"
	KeyDragAndDrop                  Key = "dragAndDrop"
	KeyFileTypes                    Key = "fileTypes"
	KeyEditSpecificArea             Key = "editSpecificArea"
	KeyTargetedChange               Key = "targetedChange"
	KeyClearMask                    Key = "clearMask"
	KeyMaskInputPlaceholder         Key = "maskInputPlaceholder"
	KeyMaskInputLabel               Key = "maskInputLabel"
	KeyAdjustSeason                 Key = "adjustSeason"
	KeyWinter                       Key = "winter"
	KeySpring                       Key = "spring"
	KeySummer                       Key = "summer"
	KeyAutumn                       Key = "autumn"
	KeyAdjustTime                   Key = "adjustTime"
	KeyDawn                         Key = "dawn"
	KeyDaytime                      Key = "daytime"
	KeyDusk                         Key = "dusk"
	KeyNight                        Key = "night"
	KeyAdditionalDetails            Key = "additionalDetails"
	KeyAdditionalDetailsPlaceholder Key = "additionalDetailsPlaceholder"
	KeyAdditionalDetailsLabel       Key = "additionalDetailsLabel"
	KeyGenerateNewView              Key = "generateNewView"
	KeyLoaderText                   Key = "loaderText"
	KeyLoaderSubtext                Key = "loaderSubtext"
	KeyErrorTitle                   Key = "errorTitle"
	KeyGeneratedView                Key = "generatedView"
	KeyUseAsInput                   Key = "useAsInput"
	KeyDownloadImage                Key = "downloadImage"
	KeyGenerationPrompt             Key = "generationPrompt"
	KeyCopyPrompt                   Key = "copyPrompt"
	KeyCloseImageView               Key = "closeImageView"
	KeyCloseMaskEditor              Key = "closeMaskEditor"
	KeyBrushSize                    Key = "brushSize"
	KeyUndo                         Key = "undo"
	KeySaveMask                     Key = "saveMask"
	KeyCancel                       Key = "cancel"
	KeyMaskEditorTitle              Key = "maskEditorTitle"
	KeyErrorUploadFirst             Key = "errorUploadFirst"
	KeyErrorMaskPrompt              Key = "errorMaskPrompt"
	KeyErrorNoImage                 Key = "errorNoImage"
	KeyErrorInvalidFile             Key = "errorInvalidFile"
	KeyExportReviewSheet            Key = "exportReviewSheet"
)

var english = map[Key]string{
	KeyAppTitle:                     "Architectural Viewpoint Generator",
	KeyHistory:                      "History",
	KeyCollapseHistory:              "Collapse history",
	KeyExpandHistory:                "Expand history",
	KeyOriginal:                     "Original",
	KeyOriginalUploadedImage:        "Original uploaded image",
	KeyViewGeneratedImage:           "View generated image from prompt: ",
	KeyNoImagesGenerated:            "No images generated yet.",
	KeyClearHistory:                 "Clear History",
	KeyUploadTitle:                  "1. Upload Building Image",
	KeyOriginalImageTitle:           "2. Original Image",
	KeySetSceneTitle:                "Set Scene",
	KeySetSceneTitleNumbered:        "3. Set Scene",
	KeyViewResultsTitle:             "View Results",
	KeyViewResultsTitleNumbered:     "4. View Results",
	KeyViewResultsTitleNumberedAlt:  "3. View Results",
	KeyClickToUpload:                "Click to upload",
	KeyDragAndDrop:                  "or drag and drop",
	KeyFileTypes:                    "PNG, JPG, or WEBP",
	KeyEditSpecificArea:             "Edit Specific Area",
	KeyTargetedChange:               "Targeted Change",
	KeyClearMask:                    "Clear Mask",
	KeyMaskInputPlaceholder:         "e.g., change this wall to horizontal wood planks...",
	KeyMaskInputLabel:               "Instructions for the selected area",
	KeyAdjustSeason:                 "Adjust Season",
	KeyWinter:                       "Winter",
	KeySpring:                       "Spring",
	KeySummer:                       "Summer",
	KeyAutumn:                       "Autumn",
	KeyAdjustTime:                   "Adjust Time of Day",
	KeyDawn:                         "Dawn",
	KeyDaytime:                      "Daytime",
	KeyDusk:                         "Dusk",
	KeyNight:                        "Night",
	KeyAdditionalDetails:            "Additional Details",
	KeyAdditionalDetailsPlaceholder: "e.g., add an aurora borealis, make the ground foggy...",
	KeyAdditionalDetailsLabel:       "Additional details for the scene",
	KeyGenerateNewView:              "Generate New View",
	KeyLoaderText:                   "Generating new perspective...",
	KeyLoaderSubtext:                "This may take a moment. The AI is working its magic!",
	KeyErrorTitle:                   "An Error Occurred",
	KeyGeneratedView:                "Generated View",
	KeyUseAsInput:                   "Use as new input image",
	KeyDownloadImage:                "Download generated image",
	KeyGenerationPrompt:             "Generation Prompt",
	KeyCopyPrompt:                   "Copy prompt",
	KeyCloseImageView:               "Close image view",
	KeyCloseMaskEditor:              "Close mask editor",
	KeyBrushSize:                    "Brush Size:",
	KeyUndo:                         "Undo (Ctrl+Z)",
	KeySaveMask:                     "Save Mask",
	KeyCancel:                       "Cancel",
	KeyMaskEditorTitle:              "Select the area to change",
	KeyErrorUploadFirst:             "Please upload an image first.",
	KeyErrorMaskPrompt:              "Please provide instructions for the selected area.",
	KeyErrorNoImage:                 "Generation failed: No image was returned.",
	KeyErrorInvalidFile:             "Please upload a valid image file (PNG, JPG, WEBP).",
	KeyExportReviewSheet:            "Export review sheet",
}

var spanish = map[Key]string{
	KeyAppTitle:                     "Generador de Vistas Arquitectónicas",
	KeyHistory:                      "Historial",
	KeyCollapseHistory:              "Contraer historial",
	KeyExpandHistory:                "Expandir historial",
	KeyOriginal:                     "Original",
	KeyOriginalUploadedImage:        "Imagen original subida",
	KeyViewGeneratedImage:           "Ver imagen generada desde la instrucción: ",
	KeyNoImagesGenerated:            "Aún no se han generado imágenes.",
	KeyClearHistory:                 "Limpiar Historial",
	KeyUploadTitle:                  "1. Subir Imagen del Edificio",
	KeyOriginalImageTitle:           "2. Imagen Original",
	KeySetSceneTitle:                "Configurar Escena",
	KeySetSceneTitleNumbered:        "3. Configurar Escena",
	KeyViewResultsTitle:             "Ver Resultados",
	KeyViewResultsTitleNumbered:     "4. Ver Resultados",
	KeyViewResultsTitleNumberedAlt:  "3. Ver Resultados",
	KeyClickToUpload:                "Haz clic para subir",
	KeyDragAndDrop:                  "o arrastra y suelta",
	KeyFileTypes:                    "PNG, JPG, o WEBP",
	KeyEditSpecificArea:             "Editar Área Específica",
	KeyTargetedChange:               "Cambio Específico",
	KeyClearMask:                    "Limpiar Máscara",
	KeyMaskInputPlaceholder:         "ej., cambiar este muro a tablones de madera horizontales...",
	KeyMaskInputLabel:               "Instrucciones para el área seleccionada",
	KeyAdjustSeason:                 "Ajustar Estación",
	KeyWinter:                       "Invierno",
	KeySpring:                       "Primavera",
	KeySummer:                       "Verano",
	KeyAutumn:                       "Otoño",
	KeyAdjustTime:                   "Ajustar Hora del Día",
	KeyDawn:                         "Amanecer",
	KeyDaytime:                      "Día",
	KeyDusk:                         "Atardecer",
	KeyNight:                        "Noche",
	KeyAdditionalDetails:            "Detalles Adicionales",
	KeyAdditionalDetailsPlaceholder: "ej., añadir una aurora boreal, hacer que el suelo tenga niebla...",
	KeyAdditionalDetailsLabel:       "Detalles adicionales para la escena",
	KeyGenerateNewView:              "Generar Nueva Vista",
	KeyLoaderText:                   "Generando nueva perspectiva...",
	KeyLoaderSubtext:                "Esto puede tomar un momento. ¡La IA está haciendo su magia!",
	KeyErrorTitle:                   "Ocurrió un Error",
	KeyGeneratedView:                "Vista Generada",
	KeyUseAsInput:                   "Usar como nueva imagen de entrada",
	KeyDownloadImage:                "Descargar imagen generada",
	KeyGenerationPrompt:             "Instrucción de Generación",
	KeyCopyPrompt:                   "Copiar instrucción",
	KeyCloseImageView:               "Cerrar vista de imagen",
	KeyCloseMaskEditor:              "Cerrar editor de máscara",
	KeyBrushSize:                    "Tamaño del Pincel:",
	KeyUndo:                         "Deshacer (Ctrl+Z)",
	KeySaveMask:                     "Guardar Máscara",
	KeyCancel:                       "Cancelar",
	KeyMaskEditorTitle:              "Selecciona el área a cambiar",
	KeyErrorUploadFirst:             "Primero sube una imagen.",
	KeyErrorMaskPrompt:              "Indica instrucciones para el área seleccionada.",
	KeyErrorNoImage:                 "La generación falló: no se devolvió ninguna imagen.",
	KeyErrorInvalidFile:             "Sube un archivo de imagen válido (PNG, JPG, WEBP).",
	KeyExportReviewSheet:            "Exportar hoja de revisión",
}
